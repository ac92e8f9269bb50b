package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-01", true},
		{"2024-02-29", true}, // leap year
		{"2023-02-29", false},
		{"2024-02-30", false},
		{"2024-13-01", false},
		{"01/01/2024", false},
		{"2024-1-1", false},
		{" 2024-01-01", false},
		{"2024-01-01 ", false},
		{"20240101", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
		}
	}
}

func TestNewExpenseTrimsCategory(t *testing.T) {
	e, err := NewExpense(decimal.RequireFromString("10"), "  Food ", "2024-01-01")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Category != "Food" || e.Date != "2024-01-01" {
		t.Fatalf("unexpected record: %+v", e)
	}
}

func TestNewExpenseValidationOrder(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		category string
		date     string
		want     error
		field    string
	}{
		{"negative amount", "-5", "Food", "2024-01-01", ErrInvalidAmount, FieldAmount},
		{"zero amount", "0", "Food", "2024-01-01", ErrInvalidAmount, FieldAmount},
		{"blank category", "10", "  ", "2024-01-01", ErrInvalidCategory, FieldCategory},
		{"slashed date", "10", "Food", "01/01/2024", ErrInvalidDate, FieldDate},
		{"date checked before amount", "-1", "Food", "bad", ErrInvalidDate, FieldDate},
		{"date checked before category", "10", "", "bad", ErrInvalidDate, FieldDate},
		{"amount checked before category", "0", "", "2024-01-01", ErrInvalidAmount, FieldAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewExpense(decimal.RequireFromString(tc.amount), tc.category, tc.date)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected IsValidation to hold")
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	msgs := map[error]string{
		ErrInvalidDate:     "Invalid date format. Please use YYYY-MM-DD",
		ErrInvalidAmount:   "Amount must be greater than 0",
		ErrInvalidCategory: "Category cannot be empty",
	}
	for err, want := range msgs {
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
		if got := (&ValidationError{Err: err}).Error(); got != want {
			t.Errorf("wrapped message %q, want %q", got, want)
		}
	}
}

func TestExpenseEqual(t *testing.T) {
	a := Expense{Amount: decimal.RequireFromString("10"), Category: "Food", Date: "2024-01-01"}
	b := Expense{Amount: decimal.RequireFromString("10.00"), Category: "Food", Date: "2024-01-01"}
	if !a.Equal(b) {
		t.Fatalf("expected numeric amount equality")
	}
	c := b
	c.Category = "food"
	if a.Equal(c) {
		t.Fatalf("category comparison must be case-sensitive")
	}
}

func TestExpenseStringAndMonth(t *testing.T) {
	e := Expense{Amount: decimal.RequireFromString("12.5"), Category: "Food", Date: "2024-03-09"}
	if got := e.String(); got != "Amount: $12.50, Category: Food, Date: 2024-03-09" {
		t.Fatalf("unexpected string: %q", got)
	}
	if got := e.Month(); got != "2024-03" {
		t.Fatalf("unexpected month: %q", got)
	}
}

func TestDefaultCategoriesIsCopy(t *testing.T) {
	cats := DefaultCategories()
	if len(cats) != 8 {
		t.Fatalf("expected 8 default categories, got %d", len(cats))
	}
	if cats[0] != "Dining Out" {
		t.Fatalf("expected sorted output, got %v", cats)
	}
	cats[0] = "mutated"
	if DefaultCategories()[0] != "Dining Out" {
		t.Fatalf("caller mutation leaked into defaults")
	}
}
