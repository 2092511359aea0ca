package http

import (
	"net/http"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.Health(r.Context()); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeMessage(w, "Database connected")
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.Initialize(r.Context()); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeMessage(w, "Tables created")
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.finance.Dashboard(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, dash)
}

// handleReports serves the static report placeholders the report view
// renders. There is no report engine behind this; PDF/Excel rendering
// stays out of scope.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	type monthlyFigure struct {
		Month    string  `json:"month"`
		Income   float64 `json:"income"`
		Expenses float64 `json:"expenses"`
	}
	type categoryShare struct {
		Category string  `json:"category"`
		Percent  float64 `json:"percent"`
	}

	writeData(w, struct {
		Monthly    []monthlyFigure `json:"monthly"`
		Categories []categoryShare `json:"categories"`
	}{
		Monthly: []monthlyFigure{
			{Month: "Jan", Income: 4500, Expenses: 3200},
			{Month: "Feb", Income: 4800, Expenses: 2900},
			{Month: "Mar", Income: 5100, Expenses: 3400},
			{Month: "Apr", Income: 4700, Expenses: 3100},
			{Month: "May", Income: 5300, Expenses: 3600},
			{Month: "Jun", Income: 4900, Expenses: 3300},
		},
		Categories: []categoryShare{
			{Category: "Office", Percent: 35},
			{Category: "Travel", Percent: 20},
			{Category: "Utilities", Percent: 15},
			{Category: "Marketing", Percent: 18},
			{Category: "Other", Percent: 12},
		},
	})
}
