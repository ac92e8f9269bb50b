package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/storage"
)

// Mirror is the spreadsheet copy of the ledger.
type Mirror interface {
	sheets.ExpenseAppender
	sheets.LedgerReplacer
}

// SyncWorker keeps a Mirror in step with the primary store: single appends
// as AMQP events arrive, full replacement on reconcile.
type SyncWorker struct {
	source storage.Store
	target Mirror
	logger *applog.Logger

	// serializes appends against full replacements
	mu sync.Mutex
}

func NewSyncWorker(source storage.Store, target Mirror, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &SyncWorker{
		source: source,
		target: target,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleExpenseRecorded appends the announced expense to the mirror.
// Messages that do not describe a valid expense return a ValidationError so
// the consumer can drop them instead of requeueing.
func (w *SyncWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	e, err := msg.Expense()
	if err != nil {
		w.logger.WarnContext(ctx, "Discarding invalid expense message",
			"id", msg.ID, applog.FieldError, err)
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ref, err := w.target.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append to mirror: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirrored expense",
		applog.FieldOperation, applog.OpSync,
		"id", msg.ID,
		"sheets_ref", ref,
		applog.FieldAmount, core.FormatAmount(e.Amount),
		applog.FieldCategory, e.Category,
		applog.FieldDate, e.Date)
	return nil
}

// Reconcile replaces the mirror with the full ledger from the source store.
// This recovers from lost messages and from rows edited by hand.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	expenses, err := w.source.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		expenses = []core.Expense{}
	} else if err != nil {
		return fmt.Errorf("load source ledger: %w", err)
	}

	valid := expenses[:0:0]
	for _, e := range expenses {
		if e.Validate() == nil {
			valid = append(valid, e)
		}
	}
	if dropped := len(expenses) - len(valid); dropped > 0 {
		w.logger.WarnContext(ctx, "Skipping invalid records during reconcile", "dropped", dropped)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.target.Save(ctx, valid); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}

	w.logger.InfoContext(ctx, "Reconciled mirror",
		applog.FieldOperation, applog.OpReconcile,
		applog.FieldCount, len(valid))
	return nil
}
