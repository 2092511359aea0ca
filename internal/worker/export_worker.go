// Package worker exports created records to an external spreadsheet.
// It consumes record events from the queue and periodically sweeps the
// store for records whose event was lost.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fundtrack/internal/amqp"
	"fundtrack/internal/core"
	"fundtrack/internal/sheets"
	"fundtrack/internal/storage"
)

type ExportWorker struct {
	storage   *storage.Repository
	appender  sheets.RecordAppender
	batchSize int
}

func NewExportWorker(storage *storage.Repository, appender sheets.RecordAppender, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleEvent processes one record event from the queue. Sync events
// load the full row from the store and append it to the sheet. Delete
// events are acknowledged without touching the sheet; the export is a
// running log, not a mirror.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.RecordEvent) error {
	switch event.Action {
	case amqp.ActionSync:
		return w.exportRecord(ctx, event.Entity, event.ID)
	case amqp.ActionDelete:
		slog.InfoContext(ctx, "Record deleted upstream, keeping exported row",
			"entity", event.Entity,
			"record_id", event.ID)
		return nil
	default:
		return fmt.Errorf("unknown action %q", event.Action)
	}
}

func (w *ExportWorker) exportRecord(ctx context.Context, entity core.TransactionType, id string) error {
	var (
		rowRef string
		err    error
	)

	switch entity {
	case core.TypeExpense:
		var e core.Expense
		e, err = w.storage.GetExpense(ctx, id)
		if err == nil {
			rowRef, err = w.appender.AppendExpense(ctx, e)
		}
	case core.TypeFund:
		var f core.Fund
		f, err = w.storage.GetFund(ctx, id)
		if err == nil {
			rowRef, err = w.appender.AppendFund(ctx, f)
		}
	default:
		return fmt.Errorf("unknown entity %q", entity)
	}

	if errors.Is(err, sql.ErrNoRows) {
		// Deleted between event and pickup. Nothing to export.
		slog.WarnContext(ctx, "Record vanished before export",
			"entity", entity,
			"record_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("export %s %s: %w", entity, id, err)
	}

	if err := w.storage.MarkExported(ctx, entity, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Record exported",
		"entity", entity,
		"record_id", id,
		"row", rowRef)
	return nil
}

// SweepBacklog exports records still flagged unexported, oldest first.
// Returns the number of records exported.
func (w *ExportWorker) SweepBacklog(ctx context.Context) (int, error) {
	pending, err := w.storage.PendingExports(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Sweeping export backlog", "pending", len(pending))

	exported := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return exported, ctx.Err()
		}
		if err := w.exportRecord(ctx, p.Entity, p.ID); err != nil {
			// Keep going; the record stays pending for the next sweep.
			slog.ErrorContext(ctx, "Backlog export failed",
				"error", err,
				"entity", p.Entity,
				"record_id", p.ID)
			continue
		}
		exported++
	}
	return exported, nil
}

// RunSweeper sweeps the backlog on the given interval until ctx is
// canceled. One sweep runs immediately on start.
func (w *ExportWorker) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	if _, err := w.SweepBacklog(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Initial backlog sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.SweepBacklog(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Backlog sweep failed", "error", err)
			}
		}
	}
}
