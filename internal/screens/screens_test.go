package screens

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butce/internal/core"
	"butce/internal/ledger"
	"butce/internal/log"
	"butce/internal/store"
	"butce/internal/store/memory"
)

var errDown = errors.New("store unavailable")

// downStore fails every read.
type downStore struct{}

func (downStore) List(context.Context, store.Collection, store.Query) ([]store.Document, error) {
	return nil, errDown
}

func (downStore) Get(context.Context, store.Collection, string) (store.Document, error) {
	return store.Document{}, errDown
}

func (downStore) Subscribe(context.Context, store.Collection, store.Query, func([]store.Document)) (store.Subscription, error) {
	return nil, errDown
}

// halfDownStore fails only for one collection.
type halfDownStore struct {
	Reader
	broken store.Collection
}

func (s halfDownStore) List(ctx context.Context, c store.Collection, q store.Query) ([]store.Document, error) {
	if c == s.broken {
		return nil, errDown
	}
	return s.Reader.List(ctx, c, q)
}

func day(s string) time.Time {
	d, err := core.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func addEntry(t *testing.T, s *memory.Store, kind core.EntryKind, amount, category, date string) string {
	t.Helper()
	m, err := core.ParseAmount(amount)
	require.NoError(t, err)
	id, err := s.Insert(context.Background(), store.EntriesOf(kind), core.EncodeEntry(core.Entry{
		Amount:    m,
		Category:  category,
		Date:      day(date),
		CreatedAt: day(date),
	}))
	require.NoError(t, err)
	return id
}

func addCategory(t *testing.T, s *memory.Store, name string, typ core.CategoryType, created time.Time) {
	t.Helper()
	_, err := s.Insert(context.Background(), store.Categories, core.EncodeCategory(core.Category{Name: name, Type: typ, CreatedAt: created}))
	require.NoError(t, err)
}

func newDeps(t *testing.T) (Deps, *memory.Store) {
	t.Helper()
	s := memory.New(log.Discard())
	t.Cleanup(func() { _ = s.Close() })
	return Deps{Store: s, RecentLimit: 3, Logger: log.Discard()}, s
}

func TestDestinationRoutes(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Destinations() {
		r := d.Route()
		require.NotEmpty(t, r, d)
		assert.False(t, seen[r], "duplicate route %s", r)
		seen[r] = true
	}
	assert.Equal(t, Home, Destinations()[0])
	assert.Equal(t, "/api/expenses/{id}", EditDestination(core.Expense).Route())
	assert.Equal(t, AllIncomes, ListDestination(core.Income))
	assert.Equal(t, AddExpense, FormDestination(core.Expense))
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, Strict, ParsePolicy("STRICT"))
	assert.Equal(t, Lenient, ParsePolicy("lenient"))
	assert.Equal(t, Lenient, ParsePolicy(""))
	assert.Equal(t, "strict", Strict.String())
}

func TestLoadHome(t *testing.T) {
	d, s := newDeps(t)
	ctx := context.Background()

	addEntry(t, s, core.Income, "5000", "Maaş", "2024-03-01")
	addEntry(t, s, core.Income, "250,50", "Ek Gelir", "2024-03-10")
	addEntry(t, s, core.Expense, "1200", "Kira", "2024-03-02")
	addEntry(t, s, core.Expense, "300", "Market", "2024-03-05")
	addEntry(t, s, core.Expense, "150", "Market", "2024-03-07")
	addEntry(t, s, core.Expense, "80", "Ulaşım", "2024-03-08")

	v := LoadHome(ctx, d)

	assert.Equal(t, int64(525050), v.TotalIncome.Cents)
	assert.Equal(t, int64(173000), v.TotalExpense.Cents)
	assert.Equal(t, int64(352050), v.Remaining.Cents)
	assert.Equal(t, ledger.Positive, v.RemainingBalance)
	assert.Equal(t, ledger.ColorIncome, v.RemainingColor)
	require.Len(t, v.BudgetBalance, 2)
	assert.Equal(t, ledger.LabelIncome, v.BudgetBalance[0].Name)

	require.Len(t, v.RecentExpenses, 3)
	assert.Equal(t, "Ulaşım", v.RecentExpenses[0].Category)
	assert.Equal(t, "08.03.2024", v.RecentExpenses[0].DateLabel)
	assert.Equal(t, "Market", v.RecentExpenses[2].Category)
	require.Len(t, v.RecentIncomes, 2)
	assert.Equal(t, "Ek Gelir", v.RecentIncomes[0].Category)

	var sum int64
	for _, sl := range v.ExpenseDistribution {
		sum += sl.Amount.Cents
	}
	assert.Equal(t, v.TotalExpense.Cents, sum)
	require.Len(t, v.ExpenseDistribution, 3)
	assert.Equal(t, ledger.PaletteColor(1), v.ExpenseDistribution[1].Color)
}

func TestLoadHomeEmptyLedger(t *testing.T) {
	d, _ := newDeps(t)
	v := LoadHome(context.Background(), d)

	assert.True(t, v.Remaining.IsZero())
	assert.Equal(t, ledger.Neutral, v.RemainingBalance)
	assert.Empty(t, v.BudgetBalance)
	assert.NotNil(t, v.RecentIncomes)
	assert.NotNil(t, v.RecentExpenses)
	assert.NotNil(t, v.ExpenseDistribution)
}

func TestLoadHomeDegradesWhenStoreFails(t *testing.T) {
	v := LoadHome(context.Background(), Deps{Store: downStore{}, RecentLimit: 3})

	assert.True(t, v.TotalIncome.IsZero())
	assert.True(t, v.TotalExpense.IsZero())
	assert.Empty(t, v.RecentIncomes)
	assert.Empty(t, v.RecentExpenses)
	assert.Empty(t, v.ExpenseDistribution)
	assert.Empty(t, v.BudgetBalance)
	assert.Len(t, v.Links, 5)
}

func TestLoadHomeExpensesDown(t *testing.T) {
	d, s := newDeps(t)
	addEntry(t, s, core.Income, "100", "Maaş", "2024-03-01")
	d.Store = halfDownStore{Reader: s, broken: store.Expenses}

	v := LoadHome(context.Background(), d)

	// Totals fail together rather than showing income against a zero expense.
	assert.True(t, v.TotalIncome.IsZero())
	assert.Equal(t, ledger.Neutral, v.RemainingBalance)
	assert.Empty(t, v.ExpenseDistribution)
}

func TestAmountPolicy(t *testing.T) {
	d, s := newDeps(t)
	ctx := context.Background()
	addEntry(t, s, core.Expense, "40", "Market", "2024-01-02")
	_, err := s.Insert(ctx, store.Expenses, map[string]any{
		core.FieldAmount:   "kırk",
		core.FieldCategory: "Market",
		core.FieldDate:     day("2024-01-03"),
	})
	require.NoError(t, err)

	lenient := LoadEntryList(ctx, d, core.Expense, "")
	require.Len(t, lenient.Entries, 2)
	assert.True(t, lenient.Entries[0].Amount.IsZero())
	assert.Equal(t, int64(4000), lenient.Total.Cents)

	d.Policy = Strict
	strict := LoadEntryList(ctx, d, core.Expense, "")
	require.Len(t, strict.Entries, 1)
	assert.Equal(t, int64(4000), strict.Entries[0].Amount.Cents)
}

func TestLoadEntryList(t *testing.T) {
	d, s := newDeps(t)
	ctx := context.Background()
	addEntry(t, s, core.Expense, "10", "Market", "2024-02-01")
	addEntry(t, s, core.Expense, "20", "Kira", "2024-02-03")
	addEntry(t, s, core.Expense, "30", "Market", "2024-02-02")
	addCategory(t, s, "Market", core.CategoryExpense, day("2024-01-01"))
	addCategory(t, s, "Maaş", core.CategoryIncome, day("2024-01-01"))

	all := LoadEntryList(ctx, d, core.Expense, "")
	assert.Equal(t, AllCategories, all.Filter)
	require.Len(t, all.Entries, 3)
	assert.Equal(t, "Kira", all.Entries[0].Category)
	assert.Equal(t, int64(6000), all.Total.Cents)
	require.Len(t, all.Categories, 1)
	assert.Equal(t, "Market", all.Categories[0].Name)

	market := LoadEntryList(ctx, d, core.Expense, "Market")
	require.Len(t, market.Entries, 2)
	assert.Equal(t, int64(4000), market.Total.Cents)
	assert.Equal(t, "02.02.2024", market.Entries[0].DateLabel)

	none := LoadEntryList(ctx, d, core.Income, "")
	assert.NotNil(t, none.Entries)
	assert.Empty(t, none.Entries)
}

func TestLoadEntryListStoreDown(t *testing.T) {
	v := LoadEntryList(context.Background(), Deps{Store: downStore{}}, core.Income, "")
	assert.NotNil(t, v.Entries)
	assert.Empty(t, v.Entries)
	assert.NotNil(t, v.Categories)
}

func TestLoadEntryForm(t *testing.T) {
	d, s := newDeps(t)
	addCategory(t, s, "Maaş", core.CategoryIncome, day("2024-01-01"))
	addCategory(t, s, "Kira", core.CategoryExpense, day("2024-01-01"))
	addCategory(t, s, "Maaş", core.CategoryIncome, day("2024-01-02"))

	v := LoadEntryForm(context.Background(), d, core.Income)
	assert.Equal(t, core.Income, v.Kind)
	require.Len(t, v.Categories, 2)
	for _, c := range v.Categories {
		assert.Equal(t, core.CategoryIncome, c.Type)
	}
}

func TestLoadEntryEdit(t *testing.T) {
	d, s := newDeps(t)
	ctx := context.Background()
	id := addEntry(t, s, core.Income, "99.90", "Maaş", "2024-04-01")
	addCategory(t, s, "Maaş", core.CategoryIncome, day("2024-01-01"))

	v, err := LoadEntryEdit(ctx, d, core.Income, id)
	require.NoError(t, err)
	assert.Equal(t, id, v.Entry.ID)
	assert.Equal(t, int64(9990), v.Entry.Amount.Cents)
	assert.Len(t, v.Categories, 1)

	_, err = LoadEntryEdit(ctx, d, core.Income, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = LoadEntryEdit(ctx, d, core.Expense, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = LoadEntryEdit(ctx, Deps{Store: downStore{}}, core.Income, id)
	assert.ErrorIs(t, err, errDown)
}

func TestLoadEntryEditMissingDate(t *testing.T) {
	d, s := newDeps(t)
	id, err := s.Insert(context.Background(), store.Incomes, map[string]any{
		core.FieldAmount:   12.5,
		core.FieldCategory: "Maaş",
	})
	require.NoError(t, err)

	v, err := LoadEntryEdit(context.Background(), d, core.Income, id)
	require.NoError(t, err)
	assert.Equal(t, core.LabelNoDate, v.Entry.DateLabel)
	assert.Equal(t, int64(1250), v.Entry.Amount.Cents)
}

func TestLoadCategories(t *testing.T) {
	d, s := newDeps(t)
	addCategory(t, s, "Eski", core.CategoryExpense, day("2024-01-01"))
	addCategory(t, s, "Yeni", core.CategoryExpense, day("2024-02-01"))
	addCategory(t, s, "Maaş", core.CategoryIncome, day("2024-01-15"))

	v := LoadCategories(context.Background(), d)
	assert.Equal(t, []string{"Yeni", "Eski"}, v.Names(core.CategoryExpense))
	assert.Equal(t, []string{"Maaş"}, v.Names(core.CategoryIncome))
	assert.Len(t, v.Types, 2)

	down := LoadCategories(context.Background(), Deps{Store: downStore{}})
	assert.Empty(t, down.Expense)
	assert.Empty(t, down.Income)
}

func TestCategoryManager(t *testing.T) {
	d, s := newDeps(t)
	ctx := context.Background()
	addCategory(t, s, "Kira", core.CategoryExpense, day("2024-01-01"))

	updates := make(chan CategoriesView, 8)
	m, err := OpenCategoryManager(ctx, d, func(v CategoriesView) { updates <- v })
	require.NoError(t, err)
	defer m.Close()

	select {
	case v := <-updates:
		assert.Equal(t, []string{"Kira"}, v.Names(core.CategoryExpense))
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	addCategory(t, s, "Market", core.CategoryExpense, day("2024-02-01"))
	require.Eventually(t, func() bool {
		return len(m.Current().Expense) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Market", "Kira"}, m.Current().Names(core.CategoryExpense))

	m.Close()
	m.Close()
	for len(updates) > 0 {
		<-updates
	}
	addCategory(t, s, "Fatura", core.CategoryExpense, day("2024-03-01"))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, updates)
	assert.Len(t, m.Current().Expense, 2)
}

func TestOpenCategoryManagerStoreDown(t *testing.T) {
	_, err := OpenCategoryManager(context.Background(), Deps{Store: downStore{}}, nil)
	assert.ErrorIs(t, err, errDown)
}
