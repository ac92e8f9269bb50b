package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
	applog "expensetracker/internal/log"

	"github.com/shopspring/decimal"
)

type createExpenseResponse struct {
	Expense expenseDTO `json:"expense"`
	Count   int        `json:"count"`
	Warning string     `json:"warning,omitempty"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	in, err := parseExpenseInput(w, r)
	if err != nil {
		logger.WarnContext(ctx, "Failed to parse expense submission", applog.FieldError, err)
		writeError(w, r, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	// An unparsable amount is reported by the ledger as non-positive, after
	// the date has been checked.
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		amount = decimal.Zero
	}

	e, err := s.ledger.AddExpense(ctx, amount, in.Category, in.Date)
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		atomic.AddInt64(&s.appMetrics.rejected, 1)
		writeError(w, r, http.StatusUnprocessableEntity, ve.Error(), ve.Field)
		return
	case errors.Is(err, ledger.ErrNotPersisted):
		atomic.AddInt64(&s.appMetrics.totalExpenses, 1)
		atomic.AddInt64(&s.appMetrics.notPersisted, 1)
		writeJSON(w, r, http.StatusCreated, createExpenseResponse{
			Expense: toExpenseDTO(e),
			Count:   s.ledger.Len(),
			Warning: "Expense recorded but could not be saved",
		})
		return
	case err != nil:
		logger.ErrorContext(ctx, "Failed to record expense", applog.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	atomic.AddInt64(&s.appMetrics.totalExpenses, 1)
	writeJSON(w, r, http.StatusCreated, createExpenseResponse{
		Expense: toExpenseDTO(e),
		Count:   s.ledger.Len(),
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")

	if start == "" && end == "" {
		writeJSON(w, r, http.StatusOK, toExpenseDTOs(s.ledger.AllExpenses()))
		return
	}
	if start == "" || end == "" {
		writeError(w, r, http.StatusBadRequest, "Both start and end are required for a date range", core.FieldDate)
		return
	}

	list, err := s.ledger.ExpensesByDateRange(start, end)
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			writeError(w, r, http.StatusBadRequest, ve.Error(), ve.Field)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	writeJSON(w, r, http.StatusOK, toExpenseDTOs(list))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.ledger.AllCategories())
}

func (s *Server) handleDefaultCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.ledger.DefaultCategories())
}
