package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TypeExpense TransactionType = "expense"
	TypeFund    TransactionType = "fund"
)

type (
	// TransactionType discriminates the two record kinds in a merged feed.
	TransactionType string

	// Date is a calendar date with no time component.
	Date struct {
		time.Time
	}

	// Money is an amount in cents. Amounts are stored as non-negative
	// magnitudes; direction (credit vs. debit) comes from the record kind.
	Money struct {
		Cents int64
	}

	// Expense is an outgoing-money record.
	Expense struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Date        Date      `json:"date"`
		BillImage   string    `json:"bill_image,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// Fund is an incoming-money record.
	Fund struct {
		ID          string    `json:"id"`
		Source      string    `json:"source"`
		Amount      Money     `json:"amount"`
		Date        Date      `json:"date"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// Transaction is a read-only projection of an Expense or Fund row,
	// synthesized per dashboard read and never persisted.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Date        Date            `json:"date"`
	}

	// Dashboard combines totals, balance, and the recent transaction feed.
	// All three figures are computed from the same store snapshot.
	Dashboard struct {
		TotalFunds         Money         `json:"totalFunds"`
		TotalExpenses      Money         `json:"totalExpenses"`
		Balance            Money         `json:"balance"`
		RecentTransactions []Transaction `json:"recentTransactions"`
	}
)

var (
	// ErrValidation is the base of every input validation error.
	ErrValidation = errors.New("invalid input")

	ErrInvalidAmount    = fmt.Errorf("%w: amount must be a positive decimal", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: date must be a calendar date (YYYY-MM-DD)", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
	ErrEmptySource      = fmt.Errorf("%w: empty source", ErrValidation)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrValidation)
)

const maxTextLen = 255

// NewID returns a new globally-unique record identifier.
func NewID() string {
	return uuid.NewString()
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > maxTextLen {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, maxTextLen)
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (f Fund) Validate() error {
	if len(strings.TrimSpace(f.Source)) == 0 {
		return ErrEmptySource
	}
	if len(f.Source) > maxTextLen {
		return fmt.Errorf("%w: source too long (max %d characters)", ErrValidation, maxTextLen)
	}
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	return f.Date.Validate()
}

// AsTransaction projects the expense into the merged feed.
func (e Expense) AsTransaction() Transaction {
	return Transaction{
		ID:          e.ID,
		Type:        TypeExpense,
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date,
	}
}

// AsTransaction projects the fund into the merged feed. The fund's
// source doubles as the display description in the feed.
func (f Fund) AsTransaction() Transaction {
	return Transaction{
		ID:          f.ID,
		Type:        TypeFund,
		Description: f.Source,
		Amount:      f.Amount,
		Date:        f.Date,
	}
}
