// Package storage persists the full expense ledger.
//
// Every backend stores the same fixed-shape record (amount as a decimal
// string, category, date) and overwrites the whole collection on Save, so
// the format never depends on in-memory representations.
package storage

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/core"

	"github.com/shopspring/decimal"
)

// ErrNotFound means no persisted state exists yet.
var ErrNotFound = errors.New("persisted ledger not found")

// Store loads and saves the whole ordered ledger.
type Store interface {
	Load(ctx context.Context) ([]core.Expense, error)
	Save(ctx context.Context, expenses []core.Expense) error
}

// Record is the persisted shape of one expense.
type Record struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// ToRecord converts a ledger record into its persisted shape.
func ToRecord(e core.Expense) Record {
	return Record{
		Amount:   e.Amount.String(),
		Category: e.Category,
		Date:     e.Date,
	}
}

// FromRecord parses a persisted record. It does not validate business rules;
// the ledger does that on load.
func FromRecord(r Record) (core.Expense, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse amount %q: %w", r.Amount, err)
	}
	return core.Expense{Amount: amount, Category: r.Category, Date: r.Date}, nil
}
