package screens

import (
	"context"

	"golang.org/x/sync/errgroup"

	"butce/internal/core"
	"butce/internal/ledger"
	"butce/internal/store"
)

// HomeView is the budget summary screen.
type HomeView struct {
	TotalIncome         core.Money          `json:"totalIncome"`
	TotalExpense        core.Money          `json:"totalExpense"`
	Remaining           core.Money          `json:"remaining"`
	RemainingBalance    ledger.Balance      `json:"remainingBalance"`
	RemainingColor      string              `json:"remainingColor"`
	BudgetBalance       []ledger.ChartSlice `json:"budgetBalance"`
	RecentIncomes       []EntryView         `json:"recentIncomes"`
	RecentExpenses      []EntryView         `json:"recentExpenses"`
	ExpenseDistribution []ledger.ChartSlice `json:"expenseDistribution"`
	Links               []Destination       `json:"links"`
}

// LoadHome runs the totals, recents and distribution loads concurrently.
// Each degrades to its empty result on failure, so LoadHome always succeeds.
func LoadHome(ctx context.Context, d Deps) HomeView {
	var (
		v  HomeView
		g  errgroup.Group
		in core.Money
		ex core.Money
	)

	g.Go(func() error {
		in, ex = d.loadTotals(ctx)
		return nil
	})
	g.Go(func() error {
		v.RecentIncomes, v.RecentExpenses = d.loadRecent(ctx)
		return nil
	})
	g.Go(func() error {
		v.ExpenseDistribution = d.loadDistribution(ctx)
		return nil
	})
	_ = g.Wait()

	v.TotalIncome, v.TotalExpense = in, ex
	v.Remaining = in.Sub(ex)
	v.RemainingBalance = ledger.BalanceColor(in, ex)
	v.RemainingColor = v.RemainingBalance.Color()
	v.BudgetBalance = ledger.BudgetBalance(in, ex)
	v.Links = []Destination{AddIncome, AddExpense, CategoryAdd, AllIncomes, AllExpenses}
	return v
}

// loadTotals sums both collections. A failure zeroes both totals so the
// remaining budget is never computed from half the data.
func (d Deps) loadTotals(ctx context.Context) (core.Money, core.Money) {
	var g errgroup.Group
	var incomes, expenses []EntryView
	g.Go(func() (err error) {
		incomes, err = d.listEntries(ctx, core.Income, store.Query{})
		return err
	})
	g.Go(func() (err error) {
		expenses, err = d.listEntries(ctx, core.Expense, store.Query{})
		return err
	})
	if err := g.Wait(); err != nil {
		d.readFailed(ctx, "totals", err)
		return core.Money{}, core.Money{}
	}
	return ledger.Sum(Entries(incomes)), ledger.Sum(Entries(expenses))
}

// loadRecent fetches the newest entries of each kind. Either list failing
// empties both, as the summary shows them side by side.
func (d Deps) loadRecent(ctx context.Context) ([]EntryView, []EntryView) {
	empty := []EntryView{}
	if d.RecentLimit <= 0 {
		return empty, []EntryView{}
	}
	q := store.NewestFirst(d.RecentLimit)

	var g errgroup.Group
	var incomes, expenses []EntryView
	g.Go(func() (err error) {
		incomes, err = d.listEntries(ctx, core.Income, q)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = d.listEntries(ctx, core.Expense, q)
		return err
	})
	if err := g.Wait(); err != nil {
		d.readFailed(ctx, "recent entries", err)
		return empty, []EntryView{}
	}
	return recent(incomes, d.RecentLimit), recent(expenses, d.RecentLimit)
}

func (d Deps) loadDistribution(ctx context.Context) []ledger.ChartSlice {
	expenses, err := d.listEntries(ctx, core.Expense, store.Query{})
	if err != nil {
		d.readFailed(ctx, "expense distribution", err)
		return []ledger.ChartSlice{}
	}
	return ledger.Distribution(ledger.GroupByCategory(Entries(expenses)))
}

// recent trims views to n, which the store limit normally already did.
func recent(views []EntryView, n int) []EntryView {
	if len(views) > n {
		views = views[:n]
	}
	if views == nil {
		return []EntryView{}
	}
	return views
}
