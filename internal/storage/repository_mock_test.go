package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"fundtrack/internal/core"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, DriverMySQL), mock
}

func TestDeleteExpenseIssuesUnconditionalDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM expenses WHERE id = ?`)).
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteExpense(context.Background(), "abc")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTotalsCoalesceToZero(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount_cents), 0) FROM funds`)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses`)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0))

	funds, expenses, err := repo.Totals(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), funds.Cents)
	assert.Equal(t, int64(0), expenses.Cents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrorsAreWrapped(t *testing.T) {
	repo, mock := newMockRepo(t)

	driverErr := errors.New("connection refused")
	mock.ExpectQuery("SELECT").WillReturnError(driverErr)

	_, err := repo.ListExpenses(context.Background())
	assert.Error(t, err)
	assert.ErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), "list expenses")
}

func TestDashboardReadsInsideOneTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount_cents), 0) FROM funds`)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(100000))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses`)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(40000))
	mock.ExpectQuery("UNION ALL").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "amount_cents", "date", "type", "created_at"}).
			AddRow("e1", "Rent", 40000, "2024-01-02", "expense", "2024-01-02 10:00:00").
			AddRow("f1", "Grant", 100000, "2024-01-01", "fund", "2024-01-01 10:00:00"))
	mock.ExpectCommit()

	dash, err := repo.Dashboard(context.Background(), 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(60000), dash.Balance.Cents)
	assert.Len(t, dash.RecentTransactions, 2)
	assert.Equal(t, core.TypeExpense, dash.RecentTransactions[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkExportedUnknownEntity(t *testing.T) {
	repo, _ := newMockRepo(t)

	err := repo.MarkExported(context.Background(), core.TransactionType("budget"), "x")
	assert.Error(t, err)
}
