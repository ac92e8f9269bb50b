package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted textual date form.
const DateLayout = "2006-01-02"

type (
	// Expense is one recorded expense. Values are never mutated after
	// construction; build a new one instead.
	Expense struct {
		Amount   decimal.Decimal
		Category string
		Date     string // YYYY-MM-DD
	}

	// ValidationError reports which input field was rejected.
	ValidationError struct {
		Field string
		Err   error
	}
)

const (
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldDate     = "date"
)

var (
	ErrInvalidDate     = errors.New("Invalid date format. Please use YYYY-MM-DD")
	ErrInvalidAmount   = errors.New("Amount must be greater than 0")
	ErrInvalidCategory = errors.New("Category cannot be empty")
)

var defaultCategories = []string{
	"Groceries",
	"Transportation",
	"Entertainment",
	"Utilities",
	"Healthcare",
	"Dining Out",
	"Shopping",
	"Education",
}

// DefaultCategories returns the suggested category names, sorted.
// They only pre-populate pickers; any non-empty category is accepted.
func DefaultCategories() []string {
	out := append([]string(nil), defaultCategories...)
	sort.Strings(out)
	return out
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateDate checks the literal YYYY-MM-DD form and that the day exists.
func ValidateDate(date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD string. No whitespace or alternative
// separators are tolerated.
func ParseDate(date string) (time.Time, error) {
	if len(date) != len(DateLayout) {
		return time.Time{}, &ValidationError{Field: FieldDate, Err: ErrInvalidDate}
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, &ValidationError{Field: FieldDate, Err: ErrInvalidDate}
	}
	return t, nil
}

// ValidateAmount requires a strictly positive amount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: FieldAmount, Err: ErrInvalidAmount}
	}
	return nil
}

// ValidateCategory requires at least one non-space character.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return &ValidationError{Field: FieldCategory, Err: ErrInvalidCategory}
	}
	return nil
}

// NewExpense validates the inputs in date, amount, category order and
// returns the record with trimmed category and date.
func NewExpense(amount decimal.Decimal, category, date string) (Expense, error) {
	if err := ValidateDate(date); err != nil {
		return Expense{}, err
	}
	if err := ValidateAmount(amount); err != nil {
		return Expense{}, err
	}
	if err := ValidateCategory(category); err != nil {
		return Expense{}, err
	}
	return Expense{
		Amount:   amount,
		Category: strings.TrimSpace(category),
		Date:     strings.TrimSpace(date),
	}, nil
}

// Validate re-applies the insertion rules to an existing record.
func (e Expense) Validate() error {
	_, err := NewExpense(e.Amount, e.Category, e.Date)
	return err
}

// Month returns the YYYY-MM prefix of the date. It assumes a validated record.
func (e Expense) Month() string {
	return e.Date[:7]
}

// Equal compares amounts numerically, so 10 and 10.00 match.
func (e Expense) Equal(o Expense) bool {
	return e.Amount.Equal(o.Amount) && e.Category == o.Category && e.Date == o.Date
}

func (e Expense) String() string {
	return fmt.Sprintf("Amount: $%s, Category: %s, Date: %s", FormatAmount(e.Amount), e.Category, e.Date)
}
