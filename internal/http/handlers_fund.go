package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"fundtrack/internal/core"
)

type createFundRequest struct {
	Source      string     `json:"source" validate:"required"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
}

func (s *Server) handleListFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := s.finance.ListFunds(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if funds == nil {
		funds = []core.Fund{}
	}
	writeData(w, funds)
}

func (s *Server) handleCreateFund(w http.ResponseWriter, r *http.Request) {
	var req createFundRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFailure(w, r, requiredFieldsError(err))
		return
	}

	created, err := s.finance.CreateFund(r.Context(), core.Fund{
		Source:      strings.TrimSpace(req.Source),
		Amount:      req.Amount,
		Date:        req.Date,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, created)
}

func (s *Server) handleDeleteFund(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.finance.DeleteFund(r.Context(), id); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
