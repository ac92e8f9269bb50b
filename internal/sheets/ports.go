package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// ExpenseAppender adds a single record at the end of the sheet.
	ExpenseAppender interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// LedgerReplacer overwrites the sheet with the full ordered ledger.
	LedgerReplacer interface {
		Save(ctx context.Context, expenses []core.Expense) error
	}
)
