package ledger

import "butce/internal/core"

// CategoryIndex splits the categories collection by type.
type CategoryIndex struct {
	Expense []core.Category `json:"expense"`
	Income  []core.Category `json:"income"`
}

// IndexCategories keeps the store's order and does no dedup or case folding.
// Categories of any other type land in neither list.
func IndexCategories(categories []core.Category) CategoryIndex {
	idx := CategoryIndex{Expense: []core.Category{}, Income: []core.Category{}}
	for _, c := range categories {
		switch c.Type {
		case core.CategoryExpense:
			idx.Expense = append(idx.Expense, c)
		case core.CategoryIncome:
			idx.Income = append(idx.Income, c)
		}
	}
	return idx
}

// Of returns the list for one type.
func (idx CategoryIndex) Of(typ core.CategoryType) []core.Category {
	switch typ {
	case core.CategoryExpense:
		return idx.Expense
	case core.CategoryIncome:
		return idx.Income
	default:
		return nil
	}
}

// Has reports whether a category with this exact name exists for typ.
func (idx CategoryIndex) Has(typ core.CategoryType, name string) bool {
	for _, c := range idx.Of(typ) {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Names lists the names for one type, duplicates included.
func (idx CategoryIndex) Names(typ core.CategoryType) []string {
	list := idx.Of(typ)
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name
	}
	return out
}
