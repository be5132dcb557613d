// Package store defines the document-store boundary the ledger is persisted
// behind: three named collections of schemaless documents with single-field
// equality filters, single-field ordering and a result limit.
package store

import (
	"context"
	"errors"

	"butce/internal/core"
)

const (
	Categories Collection = "categories"
	Incomes    Collection = "incomes"
	Expenses   Collection = "expenses"

	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidField      = errors.New("invalid field name")
)

type (
	Collection string
	Direction  string

	// Query narrows a List or Subscribe call. Zero values mean "no filter",
	// "store order" and "no limit".
	Query struct {
		OrderBy    string
		Direction  Direction
		Limit      int
		WhereField string
		WhereValue any
	}

	Document struct {
		ID     string
		Fields map[string]any
	}

	// Subscription is released with Unsubscribe. After it returns no further
	// callbacks run. It must not be called from inside the callback.
	Subscription interface {
		Unsubscribe()
	}
)

// Ports for outbound adapters.
type (
	Lister interface {
		List(ctx context.Context, c Collection, q Query) ([]Document, error)
	}

	Getter interface {
		Get(ctx context.Context, c Collection, id string) (Document, error)
	}

	Inserter interface {
		// Insert stores a new document and returns its generated id.
		Insert(ctx context.Context, c Collection, fields map[string]any) (string, error)
	}

	Updater interface {
		// Update merges fields into an existing document.
		Update(ctx context.Context, c Collection, id string, fields map[string]any) error
	}

	Remover interface {
		Remove(ctx context.Context, c Collection, id string) error
	}

	// Putter writes a document under a caller-chosen id, replacing any
	// previous version.
	Putter interface {
		Put(ctx context.Context, c Collection, id string, fields map[string]any) error
	}

	Subscriber interface {
		// Subscribe calls onChange with the current result set, then again
		// after every change to the collection, until Unsubscribe or ctx ends.
		Subscribe(ctx context.Context, c Collection, q Query, onChange func([]Document)) (Subscription, error)
	}

	// Store is the full contract every backend implements.
	Store interface {
		Lister
		Getter
		Inserter
		Updater
		Remover
		Putter
		Subscriber
	}
)

// Collections lists every collection the ledger uses.
func Collections() []Collection {
	return []Collection{Categories, Incomes, Expenses}
}

func (c Collection) Valid() bool {
	switch c {
	case Categories, Incomes, Expenses:
		return true
	default:
		return false
	}
}

// EntriesOf maps an entry kind to its collection.
func EntriesOf(kind core.EntryKind) Collection {
	if kind == core.Income {
		return Incomes
	}
	return Expenses
}

// NewestFirst orders entries by date, most recent first.
func NewestFirst(limit int) Query {
	return Query{OrderBy: core.FieldDate, Direction: Desc, Limit: limit}
}

// CategoriesOfType filters categories by type.
func CategoriesOfType(t core.CategoryType) Query {
	return Query{WhereField: core.FieldType, WhereValue: string(t)}
}

// CopyFields returns a shallow copy so callers and adapters never share maps.
func CopyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
