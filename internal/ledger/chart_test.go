package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butce/internal/core"
)

func TestDistributionCyclesPalette(t *testing.T) {
	var slices []Slice
	for i := 0; i < 9; i++ {
		slices = append(slices, Slice{Category: string(rune('a' + i)), Total: core.Money{Cents: int64(i)}})
	}
	chart := Distribution(slices)
	require.Len(t, chart, 9)
	assert.Equal(t, "#f39c12", chart[0].Color)
	assert.Equal(t, "#e67e22", chart[6].Color)
	assert.Equal(t, chart[0].Color, chart[7].Color)
	assert.Equal(t, "h", chart[7].Name)
}

func TestBudgetBalance(t *testing.T) {
	assert.Empty(t, BudgetBalance(core.Money{}, core.Money{}))

	chart := BudgetBalance(core.Money{Cents: 100}, core.Money{})
	require.Len(t, chart, 2)
	assert.Equal(t, ChartSlice{Name: LabelIncome, Amount: core.Money{Cents: 100}, Color: ColorIncome}, chart[0])
	assert.Equal(t, ChartSlice{Name: LabelExpense, Amount: core.Money{}, Color: ColorExpense}, chart[1])
}
