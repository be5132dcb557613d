package screens

import (
	"context"
	"fmt"

	"butce/internal/core"
	"butce/internal/ledger"
	"butce/internal/store"
)

// AllCategories is the list filter value that shows every entry.
const AllCategories = "all"

// EntryListView backs AllIncomes and AllExpenses.
type EntryListView struct {
	Kind       core.EntryKind  `json:"kind"`
	Entries    []EntryView     `json:"entries"`
	Total      core.Money      `json:"total"`
	Filter     string          `json:"filter"`
	Categories []core.Category `json:"categories"`
}

// EntryFormView backs AddIncome and AddExpense.
type EntryFormView struct {
	Kind       core.EntryKind  `json:"kind"`
	Categories []core.Category `json:"categories"`
}

// EntryEditView backs IncomeEdit and ExpenseEdit.
type EntryEditView struct {
	Entry      EntryView       `json:"entry"`
	Categories []core.Category `json:"categories"`
}

// ListDestination is the list screen for kind.
func ListDestination(kind core.EntryKind) Destination {
	if kind == core.Income {
		return AllIncomes
	}
	return AllExpenses
}

// FormDestination is the add screen for kind.
func FormDestination(kind core.EntryKind) Destination {
	if kind == core.Income {
		return AddIncome
	}
	return AddExpense
}

// EditDestination is the edit screen for kind.
func EditDestination(kind core.EntryKind) Destination {
	if kind == core.Income {
		return IncomeEdit
	}
	return ExpenseEdit
}

// LoadEntryList lists entries of kind newest first. filter narrows the list
// to one category name; "" and "all" keep everything. A store failure yields
// an empty list.
func LoadEntryList(ctx context.Context, d Deps, kind core.EntryKind, filter string) EntryListView {
	if filter == "" {
		filter = AllCategories
	}
	v := EntryListView{
		Kind:       kind,
		Filter:     filter,
		Entries:    []EntryView{},
		Categories: d.categoriesFor(ctx, kind),
	}

	views, err := d.listEntries(ctx, kind, store.NewestFirst(0))
	if err != nil {
		d.readFailed(ctx, string(ListDestination(kind)), err)
		return v
	}
	for _, e := range views {
		if filter == AllCategories || e.Category == filter {
			v.Entries = append(v.Entries, e)
		}
	}
	v.Total = ledger.Sum(Entries(v.Entries))
	return v
}

// LoadEntryForm returns the categories an entry of kind can be filed under.
func LoadEntryForm(ctx context.Context, d Deps, kind core.EntryKind) EntryFormView {
	return EntryFormView{Kind: kind, Categories: d.categoriesFor(ctx, kind)}
}

// LoadEntryEdit fetches one entry with the categories of its kind. Unlike the
// list screens a failed read is returned, wrapping store.ErrNotFound when the
// entry is gone.
func LoadEntryEdit(ctx context.Context, d Deps, kind core.EntryKind, id string) (EntryEditView, error) {
	doc, err := d.Store.Get(ctx, store.EntriesOf(kind), id)
	if err != nil {
		return EntryEditView{}, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	views := d.decodeEntries(ctx, kind, []store.Document{doc})
	if len(views) == 0 {
		// Strict policy rejected the stored amount; the entry is hidden.
		return EntryEditView{}, fmt.Errorf("load %s %s: %w", kind, id, store.ErrNotFound)
	}
	return EntryEditView{Entry: views[0], Categories: d.categoriesFor(ctx, kind)}, nil
}

// categoriesFor degrades to an empty list on failure.
func (d Deps) categoriesFor(ctx context.Context, kind core.EntryKind) []core.Category {
	cats, err := d.listCategories(ctx, store.CategoriesOfType(kind.CategoryType()))
	if err != nil {
		d.readFailed(ctx, "categories", err)
		return []core.Category{}
	}
	return cats
}
