// Package http exposes the REST API over the finance service.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"fundtrack/internal/core"
)

// Finance is the surface the handlers need from the service layer.
type Finance interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	CreateFund(ctx context.Context, f core.Fund) (core.Fund, error)
	ListFunds(ctx context.Context) ([]core.Fund, error)
	DeleteFund(ctx context.Context, id string) error

	Dashboard(ctx context.Context) (core.Dashboard, error)
	Health(ctx context.Context) error
	Initialize(ctx context.Context) error
}

type Server struct {
	http.Server
	finance      Finance
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, finance Finance) *Server {
	s := &Server{
		finance:     finance,
		rateLimiter: newRateLimiter(),
	}

	r := mux.NewRouter()
	r.Use(s.withRequestLog)
	r.Use(withCORS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/initialize", s.handleInitialize).Methods(http.MethodPost)

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.withRateLimit(s.handleCreateExpense)).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", s.withRateLimit(s.handleDeleteExpense)).Methods(http.MethodDelete)

	api.HandleFunc("/funds", s.handleListFunds).Methods(http.MethodGet)
	api.HandleFunc("/funds", s.withRateLimit(s.handleCreateFund)).Methods(http.MethodPost)
	api.HandleFunc("/funds/{id}", s.withRateLimit(s.handleDeleteFund)).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.handleReports).Methods(http.MethodGet)

	// Preflight for the open CORS policy.
	r.PathPrefix("/api").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.Server.Addr = addr
	s.Server.Handler = r
	s.Server.ReadTimeout = 10 * time.Second
	s.Server.WriteTimeout = 10 * time.Second
	s.Server.IdleTimeout = 60 * time.Second
	s.Server.MaxHeaderBytes = 1 << 16 // 64KB

	return s
}

// Shutdown gracefully stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
