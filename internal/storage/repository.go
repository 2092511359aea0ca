// Package storage implements the record store over database/sql.
//
// The repository speaks plain parameterized SQL that works unchanged on
// both supported drivers (modernc sqlite and go-sql-driver mysql):
// `?` placeholders, dates as YYYY-MM-DD strings, timestamps as
// "2006-01-02 15:04:05" UTC strings, amounts as integer cents.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fundtrack/internal/core"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ErrUnavailable reports that the record store cannot be reached.
var ErrUnavailable = errors.New("record store unavailable")

const timestampLayout = "2006-01-02 15:04:05"

type Repository struct {
	db     *sql.DB
	driver string
}

// Options bounds the connection pool. Acquiring a connection past
// ConnTimeout fails the request instead of queueing indefinitely.
type Options struct {
	MaxOpenConns int
	ConnTimeout  time.Duration
}

// OpenSQLite opens (and migrates) a sqlite-backed repository.
func OpenSQLite(dbPath string, opts Options) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DriverSQLite, dbPath, opts)
}

// OpenMySQL opens (and migrates) a mysql-backed repository. The DSN
// must not set parseTime: dates and timestamps are scanned as strings.
func OpenMySQL(dsn string, opts Options) (*Repository, error) {
	return open(DriverMySQL, dsn, opts)
}

func open(driver, dsn string, opts Options) (*Repository, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	pingCtx := context.Background()
	if opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(pingCtx, opts.ConnTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := RunMigrations(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, driver: driver}, nil
}

// NewRepository wraps an already-open database handle. Used by tests.
func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{db: db, driver: driver}
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Driver() string {
	return r.driver
}

// Ping reports store reachability for the health endpoint.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Initialize re-applies the schema. Safe to call on a live database.
func (r *Repository) Initialize(ctx context.Context) error {
	if err := r.Ping(ctx); err != nil {
		return err
	}
	return RunMigrations(r.db, r.driver)
}

// now returns the server-assigned timestamp in its storage form.
func now() string {
	return time.Now().UTC().Format(timestampLayout)
}

// CreateExpense persists a new expense row. The caller provides a
// validated record with ID already assigned; timestamps are set here.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	ts := now()
	var billImage sql.NullString
	if e.BillImage != "" {
		billImage = sql.NullString{String: e.BillImage, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount_cents, category, date, bill_image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.Amount.Cents, e.Category, e.Date.String(), billImage, ts, ts)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return r.GetExpense(ctx, e.ID)
}

// GetExpense loads one expense by identifier.
func (r *Repository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, description, amount_cents, category, date, bill_image, created_at, updated_at
		 FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

// ListExpenses returns every expense, newest date first. Ties on date
// fall back to creation time, then identifier, so list order is stable.
func (r *Repository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, category, date, bill_image, created_at, updated_at
		 FROM expenses
		 ORDER BY date DESC, created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// DeleteExpense removes an expense by identifier. Deleting a missing
// identifier is not an error; the statement simply affects zero rows.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// CreateFund persists a new fund row.
func (r *Repository) CreateFund(ctx context.Context, f core.Fund) (core.Fund, error) {
	ts := now()
	var description sql.NullString
	if f.Description != "" {
		description = sql.NullString{String: f.Description, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO funds (id, source, amount_cents, date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Source, f.Amount.Cents, f.Date.String(), description, ts, ts)
	if err != nil {
		return core.Fund{}, fmt.Errorf("insert fund: %w", err)
	}

	slog.InfoContext(ctx, "Fund saved",
		"id", f.ID,
		"source", f.Source,
		"amount_cents", f.Amount.Cents,
		"date", f.Date.String())

	return r.GetFund(ctx, f.ID)
}

// GetFund loads one fund by identifier.
func (r *Repository) GetFund(ctx context.Context, id string) (core.Fund, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source, amount_cents, date, description, created_at, updated_at
		 FROM funds WHERE id = ?`, id)
	return scanFund(row)
}

// ListFunds returns every fund, newest date first.
func (r *Repository) ListFunds(ctx context.Context) ([]core.Fund, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, amount_cents, date, description, created_at, updated_at
		 FROM funds
		 ORDER BY date DESC, created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	defer rows.Close()

	var funds []core.Fund
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, err
		}
		funds = append(funds, f)
	}
	return funds, rows.Err()
}

// DeleteFund removes a fund by identifier, idempotently.
func (r *Repository) DeleteFund(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM funds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete fund: %w", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func sumTable(ctx context.Context, q querier, table string) (core.Money, error) {
	var cents int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM `+table).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum %s: %w", table, err)
	}
	return core.MoneyFromCents(cents), nil
}

// recentTransactionsQuery merges both tables into one feed: a plain
// union followed by a global sort-and-truncate, not a per-source
// interleave. Ties on date break by created_at then id for determinism.
const recentTransactionsQuery = `
SELECT id, description, amount_cents, date, 'expense' AS type, created_at FROM expenses
UNION ALL
SELECT id, source AS description, amount_cents, date, 'fund' AS type, created_at FROM funds
ORDER BY date DESC, created_at DESC, id ASC
LIMIT ?`

func recentTransactions(ctx context.Context, q querier, limit int) ([]core.Transaction, error) {
	rows, err := q.QueryContext(ctx, recentTransactionsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		var (
			tx        core.Transaction
			cents     int64
			date      string
			txType    string
			createdAt string
		)
		if err := rows.Scan(&tx.ID, &tx.Description, &cents, &date, &txType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount = core.MoneyFromCents(cents)
		tx.Type = core.TransactionType(txType)
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Totals returns the two table sums. Empty tables sum to zero, never
// to an absent value.
func (r *Repository) Totals(ctx context.Context) (funds, expenses core.Money, err error) {
	if funds, err = sumTable(ctx, r.db, "funds"); err != nil {
		return
	}
	expenses, err = sumTable(ctx, r.db, "expenses")
	return
}

// RecentTransactions returns the merged feed capped at limit.
func (r *Repository) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return recentTransactions(ctx, r.db, limit)
}

// Dashboard computes totals, balance, and the recent feed from a single
// read transaction so the three figures describe the same store state.
func (r *Repository) Dashboard(ctx context.Context, limit int) (core.Dashboard, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("begin dashboard read: %w", err)
	}
	defer tx.Rollback()

	totalFunds, err := sumTable(ctx, tx, "funds")
	if err != nil {
		return core.Dashboard{}, err
	}
	totalExpenses, err := sumTable(ctx, tx, "expenses")
	if err != nil {
		return core.Dashboard{}, err
	}
	recent, err := recentTransactions(ctx, tx, limit)
	if err != nil {
		return core.Dashboard{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Dashboard{}, fmt.Errorf("commit dashboard read: %w", err)
	}

	return core.Dashboard{
		TotalFunds:         totalFunds,
		TotalExpenses:      totalExpenses,
		Balance:            core.MoneyFromCents(totalFunds.Cents - totalExpenses.Cents),
		RecentTransactions: recent,
	}, nil
}

// PendingExport identifies a record the export worker still has to pick
// up, either because its event was lost or never published.
type PendingExport struct {
	Entity core.TransactionType
	ID     string
}

// PendingExports lists unexported records, oldest first.
func (r *Repository) PendingExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, 'expense' AS entity, created_at FROM expenses WHERE export_status = 0
UNION ALL
SELECT id, 'fund' AS entity, created_at FROM funds WHERE export_status = 0
ORDER BY created_at ASC, id ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending exports: %w", err)
	}
	defer rows.Close()

	var pending []PendingExport
	for rows.Next() {
		var (
			p         PendingExport
			entity    string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &entity, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		p.Entity = core.TransactionType(entity)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkExported flags a record as present in the export sheet.
func (r *Repository) MarkExported(ctx context.Context, entity core.TransactionType, id string) error {
	table, err := tableFor(entity)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET export_status = 1, updated_at = ? WHERE id = ?`, now(), id); err != nil {
		return fmt.Errorf("mark %s exported: %w", entity, err)
	}
	return nil
}

func tableFor(entity core.TransactionType) (string, error) {
	switch entity {
	case core.TypeExpense:
		return "expenses", nil
	case core.TypeFund:
		return "funds", nil
	default:
		return "", fmt.Errorf("unknown entity %q", entity)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e          core.Expense
		cents      int64
		date       string
		billImage  sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&e.ID, &e.Description, &cents, &e.Category, &date, &billImage, &createdAt, &updatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Amount = core.MoneyFromCents(cents)
	e.BillImage = billImage.String
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	if e.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Expense{}, err
	}
	if e.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func scanFund(row rowScanner) (core.Fund, error) {
	var (
		f           core.Fund
		cents       int64
		date        string
		description sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&f.ID, &f.Source, &cents, &date, &description, &createdAt, &updatedAt)
	if err != nil {
		return core.Fund{}, fmt.Errorf("scan fund: %w", err)
	}
	f.Amount = core.MoneyFromCents(cents)
	f.Description = description.String
	if f.Date, err = core.ParseDate(date); err != nil {
		return core.Fund{}, fmt.Errorf("parse fund date %q: %w", date, err)
	}
	if f.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Fund{}, err
	}
	if f.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return core.Fund{}, err
	}
	return f, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
