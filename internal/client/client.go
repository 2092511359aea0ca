// Package client is a Go consumer of the fundtrack REST API with a
// read-through cache keyed by query. Reads within the staleness window
// are served locally; mutations invalidate the affected queries so the
// next read refetches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fundtrack/internal/core"
)

// DefaultStaleTime mirrors the refetch window the web dashboard uses.
const DefaultStaleTime = 5 * time.Second

// APIError is a {success:false} response decoded from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   *queryCache
}

type Option func(*Client)

// WithStaleTime overrides the staleness window for cached reads.
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) {
		c.cache.ttl = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   newQueryCache(DefaultStaleTime),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListExpenses returns all expenses, served from cache within the
// staleness window.
func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if cached, ok := c.cache.get(queryExpenses); ok {
		return cached.([]core.Expense), nil
	}
	var expenses []core.Expense
	if err := c.get(ctx, "/api/expenses", &expenses); err != nil {
		return nil, err
	}
	c.cache.set(queryExpenses, expenses)
	return expenses, nil
}

// CreateExpense posts a new expense. On success the expense and
// dashboard caches are invalidated; on failure the cache is untouched.
func (c *Client) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var created core.Expense
	if err := c.post(ctx, "/api/expenses", e, &created); err != nil {
		return core.Expense{}, err
	}
	c.cache.invalidate(queryExpenses)
	return created, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/expenses/"+id); err != nil {
		return err
	}
	c.cache.invalidate(queryExpenses)
	return nil
}

func (c *Client) ListFunds(ctx context.Context) ([]core.Fund, error) {
	if cached, ok := c.cache.get(queryFunds); ok {
		return cached.([]core.Fund), nil
	}
	var funds []core.Fund
	if err := c.get(ctx, "/api/funds", &funds); err != nil {
		return nil, err
	}
	c.cache.set(queryFunds, funds)
	return funds, nil
}

func (c *Client) CreateFund(ctx context.Context, f core.Fund) (core.Fund, error) {
	var created core.Fund
	if err := c.post(ctx, "/api/funds", f, &created); err != nil {
		return core.Fund{}, err
	}
	c.cache.invalidate(queryFunds)
	return created, nil
}

func (c *Client) DeleteFund(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/funds/"+id); err != nil {
		return err
	}
	c.cache.invalidate(queryFunds)
	return nil
}

func (c *Client) Dashboard(ctx context.Context) (core.Dashboard, error) {
	if cached, ok := c.cache.get(queryDashboard); ok {
		return cached.(core.Dashboard), nil
	}
	var dash core.Dashboard
	if err := c.get(ctx, "/api/dashboard", &dash); err != nil {
		return core.Dashboard{}, err
	}
	c.cache.set(queryDashboard, dash)
	return dash, nil
}

// Health checks server and store reachability. Never cached.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

func (c *Client) Initialize(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/initialize", nil, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do performs one request and unwraps the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return &APIError{StatusCode: res.StatusCode, Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
