package ledger

import "butce/internal/core"

const (
	ColorIncome  = "#4caf50"
	ColorExpense = "#f44336"
	ColorNeutral = "#9e9e9e"

	LabelIncome  = "Gelir"
	LabelExpense = "Gider"
)

// palette colours distribution slices by position.
var palette = []string{"#f39c12", "#e74c3c", "#9b59b6", "#27ae60", "#3498db", "#2ecc71", "#e67e22"}

// ChartSlice is a pie segment.
type ChartSlice struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
	Color  string     `json:"color"`
}

// PaletteColor returns the colour of the i-th slice.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// Distribution turns grouped totals into pie segments, keeping their order.
func Distribution(slices []Slice) []ChartSlice {
	out := make([]ChartSlice, len(slices))
	for i, s := range slices {
		out[i] = ChartSlice{Name: s.Category, Amount: s.Total, Color: PaletteColor(i)}
	}
	return out
}

// BudgetBalance is the income-versus-expense pie. It is empty while both totals
// are zero so the screen can show its "no data" message instead.
func BudgetBalance(income, expense core.Money) []ChartSlice {
	if income.IsZero() && expense.IsZero() {
		return []ChartSlice{}
	}
	return []ChartSlice{
		{Name: LabelIncome, Amount: income, Color: ColorIncome},
		{Name: LabelExpense, Amount: expense, Color: ColorExpense},
	}
}
