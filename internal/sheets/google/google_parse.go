package google

import (
	"fmt"
	"strings"

	"expensetracker/internal/core"

	"github.com/shopspring/decimal"
)

func toRow(e core.Expense) []any {
	return []any{e.Amount.InexactFloat64(), e.Category, e.Date}
}

// parseRows converts a values matrix (as returned by Sheets API, header
// already removed) into records. Blank rows and rows that do not form a
// valid expense are skipped and counted.
func parseRows(values [][]interface{}) ([]core.Expense, int) {
	out := make([]core.Expense, 0, len(values))
	skipped := 0
	for _, row := range values {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		if len(cols) < 3 {
			skipped++
			continue
		}
		amount, ok := parseAmount(cols[0])
		if !ok {
			skipped++
			continue
		}
		e, err := core.NewExpense(amount, cols[1], cols[2])
		if err != nil {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, skipped
}

// parseAmount accepts plain decimals as well as comma decimals from
// localized sheets.
func parseAmount(s string) (decimal.Decimal, bool) {
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}
