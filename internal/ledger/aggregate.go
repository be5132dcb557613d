// Package ledger reduces fetched incomes, expenses and categories into the
// totals, recent lists and per-category distributions the screens render.
//
// Everything here is a pure function over slices already fetched from the
// store: no I/O, no shared state, and no failure mode.
package ledger

import (
	"butce/internal/core"
)

// Balance is the sign of income minus expense.
type Balance int

const (
	Neutral Balance = iota
	Positive
	Negative
)

func (b Balance) String() string {
	switch b {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

// Color is the label colour for the remaining budget.
func (b Balance) Color() string {
	switch b {
	case Positive:
		return ColorIncome
	case Negative:
		return ColorExpense
	default:
		return ColorNeutral
	}
}

func (b Balance) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Slice is one category's share of a set of entries.
type Slice struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
}

// Sum totals the amounts. An empty slice sums to zero and totals saturate
// instead of wrapping.
func Sum(entries []core.Entry) core.Money {
	var total core.Money
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Recent returns at most n entries from the front of entries, which callers
// pass already sorted newest first. n <= 0 yields an empty result.
func Recent(entries []core.Entry, n int) []core.Entry {
	if n <= 0 {
		return []core.Entry{}
	}
	if len(entries) < n {
		n = len(entries)
	}
	out := make([]core.Entry, n)
	copy(out, entries[:n])
	return out
}

// GroupByCategory sums amounts per category name in one pass. Slices come out
// in order of each category's first occurrence, not by size.
func GroupByCategory(entries []core.Entry) []Slice {
	index := make(map[string]int)
	out := make([]Slice, 0)
	for _, e := range entries {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, Slice{Category: e.Category})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// BalanceColor compares income with expense.
func BalanceColor(income, expense core.Money) Balance {
	switch income.Cmp(expense) {
	case 1:
		return Positive
	case -1:
		return Negative
	default:
		return Neutral
	}
}
