package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validExpense() Expense {
	return Expense{
		ID:          NewID(),
		Description: "Rent",
		Amount:      Money{Cents: 40000},
		Category:    "Office",
		Date:        NewDate(2024, 1, 2),
	}
}

func validFund() Fund {
	return Fund{
		ID:     NewID(),
		Source: "Grant",
		Amount: Money{Cents: 100000},
		Date:   NewDate(2024, 1, 1),
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{name: "valid", mutate: func(e *Expense) {}},
		{name: "empty description", mutate: func(e *Expense) { e.Description = "  " }, want: ErrEmptyDescription},
		{name: "long description", mutate: func(e *Expense) { e.Description = strings.Repeat("x", 256) }, want: ErrValidation},
		{name: "empty category", mutate: func(e *Expense) { e.Category = "" }, want: ErrEmptyCategory},
		{name: "zero amount", mutate: func(e *Expense) { e.Amount = Money{} }, want: ErrInvalidAmount},
		{name: "negative amount", mutate: func(e *Expense) { e.Amount = Money{Cents: -100} }, want: ErrInvalidAmount},
		{name: "zero date", mutate: func(e *Expense) { e.Date = Date{} }, want: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() = %v, not a validation error", err)
			}
		})
	}
}

func TestFundValidate(t *testing.T) {
	f := validFund()
	if err := f.Validate(); err != nil {
		t.Fatalf("valid fund rejected: %v", err)
	}

	f = validFund()
	f.Source = ""
	if err := f.Validate(); !errors.Is(err, ErrEmptySource) {
		t.Fatalf("empty source: got %v", err)
	}

	f = validFund()
	f.Amount = Money{Cents: -5}
	if err := f.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: got %v", err)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 36 {
			t.Fatalf("id %q is not UUID-shaped", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 1, 2)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-01-02"` {
		t.Fatalf("marshal = %s", b)
	}

	var parsed Date
	if err := json.Unmarshal(b, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !parsed.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", parsed, d)
	}

	if err := json.Unmarshal([]byte(`"02/01/2024"`), &parsed); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("bad format: got %v", err)
	}
}

func TestAsTransaction(t *testing.T) {
	e := validExpense()
	tx := e.AsTransaction()
	if tx.Type != TypeExpense || tx.Description != "Rent" || tx.Amount.Cents != 40000 || tx.ID != e.ID {
		t.Fatalf("expense projection wrong: %+v", tx)
	}

	f := validFund()
	tx = f.AsTransaction()
	if tx.Type != TypeFund || tx.Description != "Grant" || tx.ID != f.ID {
		t.Fatalf("fund projection wrong: %+v", tx)
	}
}
