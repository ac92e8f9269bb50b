package http

import (
	"net/http"

	"expensetracker/internal/core"
)

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"total": core.FormatAmount(s.ledger.TotalExpenses()),
	})
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, toTotalDTOs(s.ledger.AllCategoryTotals()))
}

// handleCategoryTotal matches the category ignoring case.
func (s *Server) handleCategoryTotal(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	writeJSON(w, r, http.StatusOK, map[string]string{
		"category": name,
		"total":    core.FormatAmount(s.ledger.TotalByCategory(name)),
	})
}

// handleDateTotal does not validate the date; an unknown or malformed date
// totals zero.
func (s *Server) handleDateTotal(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	writeJSON(w, r, http.StatusOK, map[string]string{
		"date":  date,
		"total": core.FormatAmount(s.ledger.TotalByDate(date)),
	})
}

func (s *Server) handleMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, toTotalDTOs(s.ledger.MonthlyTotals()))
}
