package http

import (
	"encoding/json"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"

	"github.com/shopspring/decimal"
)

type expenseDTO struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

type totalDTO struct {
	Key    string `json:"key"`
	Amount string `json:"amount"`
}

type errorDTO struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	return expenseDTO{
		Amount:   core.FormatAmount(e.Amount),
		Category: e.Category,
		Date:     e.Date,
	}
}

func toExpenseDTOs(list []core.Expense) []expenseDTO {
	out := make([]expenseDTO, 0, len(list))
	for _, e := range list {
		out = append(out, toExpenseDTO(e))
	}
	return out
}

func toTotalDTOs(m map[string]decimal.Decimal) []totalDTO {
	sorted := core.SortedTotals(m)
	out := make([]totalDTO, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, totalDTO{Key: t.Key, Amount: core.FormatAmount(t.Amount)})
	}
	return out
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to write response", applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg, field string) {
	writeJSON(w, r, status, errorDTO{Error: msg, Field: field})
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "")
}
