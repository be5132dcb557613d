package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"butce/internal/core"
)

func TestIndexCategoriesPartitionsInOrder(t *testing.T) {
	cats := []core.Category{
		{ID: "1", Name: "Rent", Type: core.CategoryExpense},
		{ID: "2", Name: "Salary", Type: core.CategoryIncome},
		{ID: "3", Name: "food", Type: core.CategoryExpense},
		{ID: "4", Name: "Food", Type: core.CategoryExpense},
		{ID: "5", Name: "Rent", Type: core.CategoryExpense},
		{ID: "6", Name: "Odd", Type: "savings"},
	}
	idx := IndexCategories(cats)

	assert.Equal(t, []string{"Rent", "food", "Food", "Rent"}, idx.Names(core.CategoryExpense))
	assert.Equal(t, []string{"Salary"}, idx.Names(core.CategoryIncome))
	assert.True(t, idx.Has(core.CategoryExpense, "food"))
	assert.False(t, idx.Has(core.CategoryIncome, "Rent"))
	assert.False(t, idx.Has(core.CategoryExpense, "Odd"))
	assert.Nil(t, idx.Of("savings"))
}

func TestIndexCategoriesEmpty(t *testing.T) {
	idx := IndexCategories(nil)
	assert.NotNil(t, idx.Expense)
	assert.NotNil(t, idx.Income)
	assert.Empty(t, idx.Expense)
}
