package screens

import (
	"context"
	"sync"

	"butce/internal/core"
	"butce/internal/ledger"
	"butce/internal/log"
	"butce/internal/store"
)

// CategoriesView backs CategoryAdd.
type CategoriesView struct {
	ledger.CategoryIndex
	Types []core.CategoryType `json:"types"`
}

var categoryTypes = []core.CategoryType{core.CategoryExpense, core.CategoryIncome}

func newestCategoriesFirst() store.Query {
	return store.Query{OrderBy: core.FieldCreatedAt, Direction: store.Desc}
}

// LoadCategories returns the category index once, newest first.
func LoadCategories(ctx context.Context, d Deps) CategoriesView {
	cats, err := d.listCategories(ctx, newestCategoriesFirst())
	if err != nil {
		d.readFailed(ctx, string(CategoryAdd), err)
		cats = nil
	}
	return CategoriesView{CategoryIndex: ledger.IndexCategories(cats), Types: categoryTypes}
}

// CategoryManager keeps a live category index while it is open. Close must
// be called to release the subscription.
type CategoryManager struct {
	sub store.Subscription

	mu      sync.RWMutex
	current CategoriesView
}

// OpenCategoryManager subscribes to the categories collection. onChange, if
// not nil, receives every new index including the first one. It must not
// call Close.
func OpenCategoryManager(ctx context.Context, d Deps, onChange func(CategoriesView)) (*CategoryManager, error) {
	m := &CategoryManager{
		current: CategoriesView{CategoryIndex: ledger.IndexCategories(nil), Types: categoryTypes},
	}
	logger := d.logger()

	sub, err := d.Store.Subscribe(ctx, store.Categories, newestCategoriesFirst(), func(docs []store.Document) {
		v := CategoriesView{CategoryIndex: ledger.IndexCategories(decodeCategories(docs)), Types: categoryTypes}
		m.mu.Lock()
		m.current = v
		m.mu.Unlock()
		logger.DebugContext(ctx, "Category index refreshed",
			log.FieldOperation, log.OpSubscribe,
			log.FieldCount, len(docs))
		if onChange != nil {
			onChange(v)
		}
	})
	if err != nil {
		return nil, err
	}
	m.sub = sub
	return m, nil
}

// Current returns the latest index.
func (m *CategoryManager) Current() CategoriesView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Close stops updates. It is safe to call more than once.
func (m *CategoryManager) Close() {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
}
