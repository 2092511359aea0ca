// Package services orchestrates record operations across the store and
// the optional event stream.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fundtrack/internal/core"
	"fundtrack/internal/storage"
)

// RecentTransactionLimit caps the merged dashboard feed.
const RecentTransactionLimit = 10

// EventPublisher announces record mutations to the export pipeline.
type EventPublisher interface {
	PublishSync(ctx context.Context, entity core.TransactionType, id string) error
	PublishDelete(ctx context.Context, entity core.TransactionType, id string) error
}

// FinanceService validates input, writes through the repository, and
// publishes record events. Publishing is best effort: the store is the
// source of truth and a lost event is recovered by the worker's
// backlog scan.
type FinanceService struct {
	storage   *storage.Repository
	publisher EventPublisher
}

func NewFinanceService(storage *storage.Repository, publisher EventPublisher) *FinanceService {
	return &FinanceService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateExpense validates and persists a new expense, returning the
// stored record with its generated identifier and timestamps.
func (s *FinanceService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = core.NewID()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishSync(ctx, core.TypeExpense, created.ID)
	return created, nil
}

// ListExpenses returns all expenses, newest date first.
func (s *FinanceService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx)
}

// DeleteExpense removes an expense by identifier. A missing identifier
// still reports success; nothing depends on the row having existed.
func (s *FinanceService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.publishDelete(ctx, core.TypeExpense, id)
	return nil
}

// CreateFund validates and persists a new fund.
func (s *FinanceService) CreateFund(ctx context.Context, f core.Fund) (core.Fund, error) {
	f.ID = core.NewID()
	if err := f.Validate(); err != nil {
		return core.Fund{}, err
	}

	created, err := s.storage.CreateFund(ctx, f)
	if err != nil {
		return core.Fund{}, fmt.Errorf("save fund: %w", err)
	}

	s.publishSync(ctx, core.TypeFund, created.ID)
	return created, nil
}

// ListFunds returns all funds, newest date first.
func (s *FinanceService) ListFunds(ctx context.Context) ([]core.Fund, error) {
	return s.storage.ListFunds(ctx)
}

// DeleteFund removes a fund by identifier, idempotently.
func (s *FinanceService) DeleteFund(ctx context.Context, id string) error {
	if err := s.storage.DeleteFund(ctx, id); err != nil {
		return fmt.Errorf("delete fund: %w", err)
	}
	s.publishDelete(ctx, core.TypeFund, id)
	return nil
}

// Dashboard returns totals, balance, and the recent transaction feed,
// all computed from one store read.
func (s *FinanceService) Dashboard(ctx context.Context) (core.Dashboard, error) {
	return s.storage.Dashboard(ctx, RecentTransactionLimit)
}

// Health reports store reachability.
func (s *FinanceService) Health(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// Initialize applies the schema, idempotently.
func (s *FinanceService) Initialize(ctx context.Context) error {
	return s.storage.Initialize(ctx)
}

func (s *FinanceService) publishSync(ctx context.Context, entity core.TransactionType, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, entity, id); err != nil {
		// Record is saved locally; the backlog scan will catch up.
		slog.ErrorContext(ctx, "Failed to publish sync event",
			"entity", entity, "record_id", id, "error", err)
	}
}

func (s *FinanceService) publishDelete(ctx context.Context, entity core.TransactionType, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDelete(ctx, entity, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event",
			"entity", entity, "record_id", id, "error", err)
	}
}

// Close releases the underlying store.
func (s *FinanceService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
