package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundtrack/internal/core"
)

func TestAppendRecordsRows(t *testing.T) {
	a := New()

	ref, err := a.AppendExpense(context.Background(), core.Expense{
		ID:          "e1",
		Description: "Rent",
		Amount:      core.Money{Cents: 40000},
		Date:        core.NewDate(2024, 3, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, "memory!A1", ref)

	ref, err = a.AppendFund(context.Background(), core.Fund{
		ID:     "f1",
		Source: "Grant",
		Amount: core.Money{Cents: 100000},
		Date:   core.NewDate(2024, 3, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "memory!A2", ref)

	rows := a.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, core.TypeExpense, rows[0].Kind)
	assert.Equal(t, "Grant", rows[1].Description)
}

func TestAppendPropagatesError(t *testing.T) {
	a := New()
	a.Err = errors.New("quota exceeded")

	_, err := a.AppendExpense(context.Background(), core.Expense{ID: "e1"})
	assert.Error(t, err)
	assert.Empty(t, a.Rows())
}
