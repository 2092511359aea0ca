package sheets

import (
	"context"

	"fundtrack/internal/core"
)

// RecordAppender is the outbound port the export worker writes through.
type RecordAppender interface {
	// AppendExpense appends one expense row and returns a reference to
	// the written range.
	AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)

	// AppendFund appends one fund row and returns a reference to the
	// written range.
	AppendFund(ctx context.Context, f core.Fund) (rowRef string, err error)
}
