// Package ledger owns the in-memory expense collection: validated inserts
// with write-through persistence, plus read-only aggregate reports.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"

	"github.com/shopspring/decimal"
)

// ErrNotPersisted is returned (wrapped) by AddExpense when the record was
// accepted in memory but the store rejected the save.
var ErrNotPersisted = errors.New("expense recorded but not persisted")

// Notifier is told about every accepted expense, after it has been persisted.
type Notifier interface {
	ExpenseRecorded(ctx context.Context, e core.Expense) error
}

type Option func(*Ledger)

// WithLogger sets the logger; the default discards output.
func WithLogger(l *applog.Logger) Option {
	return func(lg *Ledger) {
		if l != nil {
			lg.logger = l.WithComponent(applog.ComponentLedger)
		}
	}
}

// WithNotifier registers a change notifier.
func WithNotifier(n Notifier) Option {
	return func(lg *Ledger) { lg.notifier = n }
}

// WithDefaultCategories overrides the suggested category set.
func WithDefaultCategories(cats []string) Option {
	return func(lg *Ledger) {
		lg.defaults = append([]string(nil), cats...)
		sort.Strings(lg.defaults)
	}
}

type Ledger struct {
	mu       sync.RWMutex
	expenses []core.Expense
	store    storage.Store
	notifier Notifier
	logger   *applog.Logger
	sl       *applog.StructuredLogger
	defaults []string
}

// Open loads the ledger from store. Load failures never fail startup: a
// missing or unreadable store yields an empty ledger, and invalid records
// are dropped. A missing or empty store is persisted once so it exists; an
// unreadable one is not written until the next successful AddExpense.
func Open(ctx context.Context, store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		logger:   applog.Discard().WithComponent(applog.ComponentLedger),
		defaults: core.DefaultCategories(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.sl = applog.NewStructuredLogger(l.logger)

	loaded, err := store.Load(ctx)
	// Only a store that is absent or holds nothing counts as a first run.
	// Any other load failure leaves the store as it is.
	firstRun := errors.Is(err, storage.ErrNotFound) || (err == nil && len(loaded) == 0)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		l.logger.InfoContext(ctx, "No persisted ledger found, starting empty")
	case err != nil:
		l.logger.WarnContext(ctx, "Failed to load ledger, starting empty",
			applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
		loaded = nil
	}

	l.expenses = make([]core.Expense, 0, len(loaded))
	for i, e := range loaded {
		if err := e.Validate(); err != nil {
			l.logger.WarnContext(ctx, "Dropping invalid persisted expense",
				"position", i,
				applog.FieldDate, e.Date,
				applog.FieldCategory, e.Category,
				applog.FieldError, err)
			continue
		}
		l.expenses = append(l.expenses, e)
	}

	if firstRun {
		if err := store.Save(ctx, l.expenses); err != nil {
			l.logger.WarnContext(ctx, "Failed to persist empty ledger",
				applog.FieldOperation, applog.OpSave, applog.FieldError, err)
		}
	}

	l.logger.InfoContext(ctx, "Ledger opened", applog.FieldCount, len(l.expenses))
	return l
}

// AddExpense validates date, then amount, then category, appends the record
// and persists the whole ledger. A persistence failure keeps the in-memory
// record and is returned wrapped in ErrNotPersisted.
func (l *Ledger) AddExpense(ctx context.Context, amount decimal.Decimal, category, date string) (core.Expense, error) {
	e, err := core.NewExpense(amount, category, date)
	if err != nil {
		return core.Expense{}, err
	}

	l.mu.Lock()
	l.expenses = append(l.expenses, e)
	count := len(l.expenses)
	saveErr := l.store.Save(ctx, l.expenses)
	l.mu.Unlock()

	if saveErr != nil {
		l.sl.LogError(ctx, "Failed to persist ledger", saveErr, applog.ComponentLedger, applog.OpSave,
			applog.NewFields().WithExpense(e.Amount.String(), e.Category, e.Date))
		return e, fmt.Errorf("%w: %w", ErrNotPersisted, saveErr)
	}

	l.sl.LogExpenseRecorded(ctx, e.Amount.String(), e.Category, e.Date, count)

	if l.notifier != nil {
		if err := l.notifier.ExpenseRecorded(ctx, e); err != nil {
			l.logger.WarnContext(ctx, "Failed to notify expense recorded",
				applog.FieldOperation, applog.OpPublish, applog.FieldError, err)
		}
	}
	return e, nil
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.expenses)
}

// DefaultCategories returns the suggested categories, sorted.
func (l *Ledger) DefaultCategories() []string {
	return append([]string(nil), l.defaults...)
}

// AllExpenses returns a copy of the ledger in insertion order.
func (l *Ledger) AllExpenses() []core.Expense {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.Expense(nil), l.expenses...)
}

// TotalExpenses sums every record.
func (l *Ledger) TotalExpenses() decimal.Decimal {
	return l.sum(func(core.Expense) bool { return true })
}

// TotalByCategory sums records whose category matches name ignoring case.
func (l *Ledger) TotalByCategory(name string) decimal.Decimal {
	return l.sum(func(e core.Expense) bool { return strings.EqualFold(e.Category, name) })
}

// TotalByDate sums records whose date string equals date exactly.
func (l *Ledger) TotalByDate(date string) decimal.Decimal {
	return l.sum(func(e core.Expense) bool { return e.Date == date })
}

// AllCategoryTotals groups by the literal category text; "Food" and "food"
// are separate keys, unlike TotalByCategory.
func (l *Ledger) AllCategoryTotals() map[string]decimal.Decimal {
	return l.groupBy(func(e core.Expense) string { return e.Category })
}

// MonthlyTotals groups by the YYYY-MM prefix of each date.
func (l *Ledger) MonthlyTotals() map[string]decimal.Decimal {
	return l.groupBy(core.Expense.Month)
}

// ExpensesByDateRange returns records dated within [start, end], sorted by
// date. Records sharing a date keep their insertion order.
func (l *Ledger) ExpensesByDateRange(start, end string) ([]core.Expense, error) {
	if err := core.ValidateDate(start); err != nil {
		return nil, err
	}
	if err := core.ValidateDate(end); err != nil {
		return nil, err
	}

	l.mu.RLock()
	out := make([]core.Expense, 0)
	for _, e := range l.expenses {
		// Validated YYYY-MM-DD strings order the same as the dates they name.
		if e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// AllCategories returns distinct category strings sorted ascending.
func (l *Ledger) AllCategories() []string {
	l.mu.RLock()
	seen := make(map[string]struct{}, len(l.expenses))
	out := make([]string, 0)
	for _, e := range l.expenses {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	l.mu.RUnlock()

	sort.Strings(out)
	return out
}

func (l *Ledger) sum(match func(core.Expense) bool) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, e := range l.expenses {
		if match(e) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func (l *Ledger) groupBy(key func(core.Expense) string) map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]decimal.Decimal)
	for _, e := range l.expenses {
		k := key(e)
		out[k] = out[k].Add(e.Amount)
	}
	return out
}
