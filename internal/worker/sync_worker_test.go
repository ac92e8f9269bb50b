package worker

import (
	"context"
	"errors"
	"testing"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"

	"github.com/shopspring/decimal"
)

type fakeMirror struct {
	rows      []core.Expense
	saves     int
	appendErr error
	saveErr   error
}

func (m *fakeMirror) Append(_ context.Context, e core.Expense) (string, error) {
	if m.appendErr != nil {
		return "", m.appendErr
	}
	m.rows = append(m.rows, e)
	return "Expenses!A2:C2", nil
}

func (m *fakeMirror) Save(_ context.Context, expenses []core.Expense) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.rows = append([]core.Expense(nil), expenses...)
	return nil
}

type failingStore struct{ err error }

func (s failingStore) Load(context.Context) ([]core.Expense, error) { return nil, s.err }
func (s failingStore) Save(context.Context, []core.Expense) error   { return s.err }

func expense(amount, category, date string) core.Expense {
	return core.Expense{Amount: decimal.RequireFromString(amount), Category: category, Date: date}
}

func TestHandleExpenseRecorded(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewSyncWorker(storage.NewMemoryStore(), mirror, nil)
	ctx := context.Background()

	msg := amqp.NewExpenseRecordedMessage(expense("12.50", "Food", "2024-01-01"))
	if err := w.HandleExpenseRecorded(ctx, msg); err != nil {
		t.Fatalf("HandleExpenseRecorded: %v", err)
	}
	if len(mirror.rows) != 1 || !mirror.rows[0].Equal(expense("12.5", "Food", "2024-01-01")) {
		t.Fatalf("mirror rows = %v", mirror.rows)
	}
}

func TestHandleExpenseRecordedInvalid(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewSyncWorker(storage.NewMemoryStore(), mirror, nil)

	msg := &amqp.ExpenseRecordedMessage{Amount: "-1", Category: "Food", Date: "2024-01-01"}
	err := w.HandleExpenseRecorded(context.Background(), msg)
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(mirror.rows) != 0 {
		t.Fatalf("invalid message reached the mirror: %v", mirror.rows)
	}
}

func TestHandleExpenseRecordedMirrorError(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewSyncWorker(storage.NewMemoryStore(), &fakeMirror{appendErr: boom}, nil)

	msg := amqp.NewExpenseRecordedMessage(expense("1", "Food", "2024-01-01"))
	err := w.HandleExpenseRecorded(context.Background(), msg)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
	if core.IsValidation(err) {
		t.Fatal("mirror failures must stay retryable")
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	source := storage.NewMemoryStore(
		expense("10", "Food", "2024-01-01"),
		expense("0", "Broken", "2024-01-02"),
		expense("5.25", "Transport", "2024-01-03"),
	)
	mirror := &fakeMirror{rows: []core.Expense{expense("99", "Stale", "2023-12-31")}}
	w := NewSyncWorker(source, mirror, nil)

	if err := w.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	want := []core.Expense{expense("10", "Food", "2024-01-01"), expense("5.25", "Transport", "2024-01-03")}
	if len(mirror.rows) != len(want) {
		t.Fatalf("mirror rows = %v, want %v", mirror.rows, want)
	}
	for i := range want {
		if !mirror.rows[i].Equal(want[i]) {
			t.Fatalf("row %d = %v, want %v", i, mirror.rows[i], want[i])
		}
	}
}

func TestReconcileEmptySource(t *testing.T) {
	mirror := &fakeMirror{rows: []core.Expense{expense("1", "Old", "2024-01-01")}}
	w := NewSyncWorker(storage.NewMemoryStore(), mirror, nil)

	if err := w.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if mirror.saves != 1 || len(mirror.rows) != 0 {
		t.Fatalf("expected mirror cleared once, saves=%d rows=%v", mirror.saves, mirror.rows)
	}
}

func TestReconcileErrors(t *testing.T) {
	boom := errors.New("disk gone")
	w := NewSyncWorker(failingStore{err: boom}, &fakeMirror{}, nil)
	if err := w.Reconcile(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("source error = %v", err)
	}

	w = NewSyncWorker(storage.NewMemoryStore(), &fakeMirror{saveErr: boom}, nil)
	if err := w.Reconcile(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("mirror error = %v", err)
	}
}
