package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expensetracker/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseRecordedMessage announces one expense appended to the ledger.
// Amount travels as a decimal string so no precision is lost on the wire.
type ExpenseRecordedMessage struct {
	ID        uuid.UUID `json:"id"`
	Amount    string    `json:"amount"`
	Category  string    `json:"category"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseRecordedMessage creates a message with a fresh ID
func NewExpenseRecordedMessage(e core.Expense) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ID:        uuid.New(),
		Amount:    e.Amount.String(),
		Category:  e.Category,
		Date:      e.Date,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseRecordedMessageFromJSON creates a message from JSON bytes
func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, fmt.Errorf("message has no id")
	}
	return &msg, nil
}

// Expense rebuilds the ledger record, applying the same validation as the ledger.
func (m *ExpenseRecordedMessage) Expense() (core.Expense, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		// Unparsable amounts fail as non-positive, after the date check.
		amount = decimal.Zero
	}
	return core.NewExpense(amount, m.Category, m.Date)
}
