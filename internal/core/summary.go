package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Total is an amount aggregated under a key (category name or YYYY-MM).
type Total struct {
	Key    string
	Amount decimal.Decimal
}

// SortedTotals flattens an aggregate map into key order.
func SortedTotals(m map[string]decimal.Decimal) []Total {
	out := make([]Total, 0, len(m))
	for k, v := range m {
		out = append(out, Total{Key: k, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
