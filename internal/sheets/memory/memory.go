// Package memory is an in-memory RecordAppender for tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fundtrack/internal/core"
	"fundtrack/internal/sheets"
)

// Row is one appended record.
type Row struct {
	Kind        core.TransactionType
	ID          string
	Description string
	Amount      core.Money
	Date        core.Date
}

type Appender struct {
	mu   sync.Mutex
	rows []Row

	// Err, when set, is returned by every append.
	Err error
}

var _ sheets.RecordAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	return a.append(Row{
		Kind:        core.TypeExpense,
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date,
	})
}

func (a *Appender) AppendFund(_ context.Context, f core.Fund) (string, error) {
	return a.append(Row{
		Kind:        core.TypeFund,
		ID:          f.ID,
		Description: f.Source,
		Amount:      f.Amount,
		Date:        f.Date,
	})
}

func (a *Appender) append(row Row) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return "", a.Err
	}
	a.rows = append(a.rows, row)
	return fmt.Sprintf("memory!A%d", len(a.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []Row {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Row, len(a.rows))
	copy(out, a.rows)
	return out
}
