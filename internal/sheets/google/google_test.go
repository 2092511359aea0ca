package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"fundtrack/internal/core"
)

func TestExpenseRow(t *testing.T) {
	row := expenseRow(core.Expense{
		Description: "Office chairs",
		Amount:      core.Money{Cents: 34999},
		Category:    "Office",
		Date:        core.NewDate(2024, 3, 15),
	})

	assert.Equal(t, []any{"2024-03-15", "expense", "Office chairs", "Office", "349.99"}, row)
}

func TestFundRow(t *testing.T) {
	row := fundRow(core.Fund{
		Source:      "Client payment",
		Description: "Invoice 42",
		Amount:      core.Money{Cents: 150000},
		Date:        core.NewDate(2024, 3, 10),
	})

	assert.Equal(t, []any{"2024-03-10", "fund", "Client payment", "Invoice 42", "1500.00"}, row)
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "", "Records")
	assert.Error(t, err)
}
