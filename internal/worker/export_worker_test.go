package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundtrack/internal/amqp"
	"fundtrack/internal/core"
	"fundtrack/internal/sheets/memory"
	"fundtrack/internal/storage"
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "worker.db"), storage.Options{
		MaxOpenConns: 2,
		ConnTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createExpense(t *testing.T, repo *storage.Repository, description string) core.Expense {
	t.Helper()
	e, err := repo.CreateExpense(context.Background(), core.Expense{
		ID:          core.NewID(),
		Description: description,
		Amount:      core.Money{Cents: 12500},
		Category:    "Office",
		Date:        core.NewDate(2024, 3, 15),
	})
	require.NoError(t, err)
	return e
}

func createFund(t *testing.T, repo *storage.Repository, source string) core.Fund {
	t.Helper()
	f, err := repo.CreateFund(context.Background(), core.Fund{
		ID:     core.NewID(),
		Source: source,
		Amount: core.Money{Cents: 90000},
		Date:   core.NewDate(2024, 3, 10),
	})
	require.NoError(t, err)
	return f
}

func TestHandleSyncEventExportsExpense(t *testing.T) {
	repo := newTestRepo(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, 10)

	e := createExpense(t, repo, "Printer ink")

	err := w.HandleEvent(context.Background(), amqp.NewSyncEvent(core.TypeExpense, e.ID))
	require.NoError(t, err)

	rows := appender.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, core.TypeExpense, rows[0].Kind)
	assert.Equal(t, "Printer ink", rows[0].Description)
	assert.Equal(t, int64(12500), rows[0].Amount.Cents)

	// The record is no longer pending.
	pending, err := repo.PendingExports(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestHandleSyncEventExportsFund(t *testing.T) {
	repo := newTestRepo(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, 10)

	f := createFund(t, repo, "Grant")

	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewSyncEvent(core.TypeFund, f.ID)))

	rows := appender.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, core.TypeFund, rows[0].Kind)
	assert.Equal(t, "Grant", rows[0].Description)
}

func TestHandleDeleteEventKeepsSheetUntouched(t *testing.T) {
	repo := newTestRepo(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, 10)

	err := w.HandleEvent(context.Background(), amqp.NewDeleteEvent(core.TypeExpense, core.NewID()))
	require.NoError(t, err)
	assert.Empty(t, appender.Rows())
}

func TestSyncEventForVanishedRecordSucceeds(t *testing.T) {
	repo := newTestRepo(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, 10)

	// Event for a record that was deleted before pickup.
	err := w.HandleEvent(context.Background(), amqp.NewSyncEvent(core.TypeExpense, core.NewID()))
	require.NoError(t, err)
	assert.Empty(t, appender.Rows())
}

func TestSweepBacklogExportsPendingRecords(t *testing.T) {
	repo := newTestRepo(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, 10)

	createExpense(t, repo, "Rent")
	createFund(t, repo, "Grant")
	createExpense(t, repo, "Coffee")

	exported, err := w.SweepBacklog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, exported)
	assert.Len(t, appender.Rows(), 3)

	// A second sweep finds nothing left.
	exported, err = w.SweepBacklog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, exported)
	assert.Len(t, appender.Rows(), 3)
}

func TestSweepBacklogKeepsFailedRecordsPending(t *testing.T) {
	repo := newTestRepo(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, 10)

	createExpense(t, repo, "Rent")

	appender.Err = assert.AnError
	exported, err := w.SweepBacklog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, exported)

	// The record stays pending and exports once the sheet recovers.
	appender.Err = nil
	exported, err = w.SweepBacklog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, exported)
}

func TestSweepBacklogHonorsBatchSize(t *testing.T) {
	repo := newTestRepo(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, 2)

	createExpense(t, repo, "One")
	createExpense(t, repo, "Two")
	createExpense(t, repo, "Three")

	exported, err := w.SweepBacklog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	exported, err = w.SweepBacklog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, exported)
}
