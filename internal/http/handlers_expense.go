package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"fundtrack/internal/core"
)

var validate = validator.New()

// requiredFieldsError turns validator output into one validation error
// naming the missing fields.
func requiredFieldsError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("%w: missing required field(s): %s", core.ErrValidation, strings.Join(fields, ", "))
}

type createExpenseRequest struct {
	Description string     `json:"description" validate:"required"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category" validate:"required"`
	Date        core.Date  `json:"date"`
	BillImage   string     `json:"bill_image"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.finance.ListExpenses(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeData(w, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFailure(w, r, requiredFieldsError(err))
		return
	}

	created, err := s.finance.CreateExpense(r.Context(), core.Expense{
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Date:        req.Date,
		BillImage:   strings.TrimSpace(req.BillImage),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, created)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.finance.DeleteExpense(r.Context(), id); err != nil {
		writeFailure(w, r, err)
		return
	}
	// Deleting an unknown identifier is still a success.
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
