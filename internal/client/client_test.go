package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundtrack/internal/core"
)

// countingServer serves canned API responses and counts hits per path.
type countingServer struct {
	*httptest.Server
	expenseLists  atomic.Int64
	fundLists     atomic.Int64
	dashboardGets atomic.Int64
	creates       atomic.Int64

	failCreates bool
}

func newCountingServer(t *testing.T) *countingServer {
	t.Helper()
	cs := &countingServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		cs.expenseLists.Add(1)
		writeOK(w, []core.Expense{{ID: "e1", Description: "Rent", Amount: core.Money{Cents: 40000},
			Category: "Office", Date: core.NewDate(2024, 3, 5)}})
	})
	mux.HandleFunc("POST /api/expenses", func(w http.ResponseWriter, r *http.Request) {
		cs.creates.Add(1)
		if cs.failCreates {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "invalid input: empty description"})
			return
		}
		var e core.Expense
		json.NewDecoder(r.Body).Decode(&e)
		e.ID = "e-new"
		writeOK(w, e)
	})
	mux.HandleFunc("GET /api/funds", func(w http.ResponseWriter, r *http.Request) {
		cs.fundLists.Add(1)
		writeOK(w, []core.Fund{{ID: "f1", Source: "Grant", Amount: core.Money{Cents: 100000},
			Date: core.NewDate(2024, 3, 1)}})
	})
	mux.HandleFunc("GET /api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		cs.dashboardGets.Add(1)
		writeOK(w, core.Dashboard{
			TotalFunds:         core.Money{Cents: 100000},
			TotalExpenses:      core.Money{Cents: 40000},
			Balance:            core.Money{Cents: 60000},
			RecentTransactions: []core.Transaction{},
		})
	})
	mux.HandleFunc("DELETE /api/expenses/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Database connected"})
	})

	cs.Server = httptest.NewServer(mux)
	t.Cleanup(cs.Close)
	return cs
}

func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func TestListExpensesUsesCacheWithinWindow(t *testing.T) {
	srv := newCountingServer(t)
	c := New(srv.URL)

	first, err := c.ListExpenses(context.Background())
	require.NoError(t, err)
	second, err := c.ListExpenses(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), srv.expenseLists.Load(), "second read within the window must not hit the server")
}

func TestStaleEntryRefetches(t *testing.T) {
	srv := newCountingServer(t)
	c := New(srv.URL)
	c.cache.ttl = 10 * time.Millisecond

	_, err := c.ListExpenses(context.Background())
	require.NoError(t, err)

	// Force staleness without sleeping.
	c.cache.now = func() time.Time { return time.Now().Add(time.Second) }

	_, err = c.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), srv.expenseLists.Load())
}

func TestCreateExpenseInvalidatesExpensesAndDashboard(t *testing.T) {
	srv := newCountingServer(t)
	c := New(srv.URL)

	_, err := c.ListExpenses(context.Background())
	require.NoError(t, err)
	_, err = c.ListFunds(context.Background())
	require.NoError(t, err)
	_, err = c.Dashboard(context.Background())
	require.NoError(t, err)

	created, err := c.CreateExpense(context.Background(), core.Expense{
		Description: "Chairs",
		Amount:      core.Money{Cents: 34999},
		Category:    "Office",
		Date:        core.NewDate(2024, 3, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, "e-new", created.ID)

	// Expenses and dashboard refetch; funds stays cached.
	_, err = c.ListExpenses(context.Background())
	require.NoError(t, err)
	_, err = c.Dashboard(context.Background())
	require.NoError(t, err)
	_, err = c.ListFunds(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), srv.expenseLists.Load())
	assert.Equal(t, int64(2), srv.dashboardGets.Load())
	assert.Equal(t, int64(1), srv.fundLists.Load())
}

func TestFailedMutationLeavesCacheUntouched(t *testing.T) {
	srv := newCountingServer(t)
	srv.failCreates = true
	c := New(srv.URL)

	_, err := c.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.cache.size())

	_, err = c.CreateExpense(context.Background(), core.Expense{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "empty description")

	_, err = c.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), srv.expenseLists.Load(), "failed create must not invalidate the cache")
}

func TestDeleteExpenseInvalidates(t *testing.T) {
	srv := newCountingServer(t)
	c := New(srv.URL)

	_, err := c.ListExpenses(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.DeleteExpense(context.Background(), "e1"))

	_, err = c.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), srv.expenseLists.Load())
}

func TestHealthNeverCached(t *testing.T) {
	srv := newCountingServer(t)
	c := New(srv.URL)

	require.NoError(t, c.Health(context.Background()))
	require.NoError(t, c.Health(context.Background()))
	assert.Equal(t, 0, c.cache.size())
}
