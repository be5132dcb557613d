package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryInputValidate(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	good := EntryInput{Amount: "40", Category: "Food", Date: day}
	require.NoError(t, good.Validate())

	bads := []struct {
		name string
		in   EntryInput
		want error
	}{
		{"missing amount", EntryInput{Amount: "", Category: "Food", Date: day}, ErrMissingAmount},
		{"bad amount", EntryInput{Amount: "x", Category: "Food", Date: day}, ErrUnparseableAmount},
		{"blank category", EntryInput{Amount: "1", Category: " ", Date: day}, ErrMissingCategory},
		{"missing date", EntryInput{Amount: "1", Category: "Food"}, ErrMissingDate},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEntryInputEntry(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	e, err := EntryInput{Amount: "12,50", Category: "Maaş", Date: day, Description: " note "}.Entry(Income, now)
	require.NoError(t, err)
	assert.Equal(t, Income, e.Kind)
	assert.Equal(t, int64(1250), e.Amount.Cents)
	assert.Equal(t, "Maaş", e.Category)
	assert.Equal(t, "note", e.Description)
	assert.True(t, e.Date.Equal(day))
	assert.True(t, e.CreatedAt.Equal(now))

	_, err = EntryInput{}.Entry("transfer", now)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestEntryInputKeepsCategoryWhitespace(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	e, err := EntryInput{Amount: "1", Category: " Market", Date: day}.Entry(Expense, day)
	require.NoError(t, err)
	assert.Equal(t, " Market", e.Category)
}

func TestNewCategory(t *testing.T) {
	now := time.Now()
	c, err := NewCategory(" Food ", CategoryExpense, now)
	require.NoError(t, err)
	assert.Equal(t, " Food ", c.Name, "names are stored as typed")

	_, err = NewCategory("   ", CategoryExpense, now)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = NewCategory("Food", "other", now)
	assert.ErrorIs(t, err, ErrInvalidCategoryType)
}

func TestParseCategoryType(t *testing.T) {
	typ, err := ParseCategoryType(" Income ")
	require.NoError(t, err)
	assert.Equal(t, CategoryIncome, typ)

	_, err = ParseCategoryType("savings")
	assert.ErrorIs(t, err, ErrInvalidCategoryType)

	assert.Equal(t, CategoryExpense, Expense.CategoryType())
}
