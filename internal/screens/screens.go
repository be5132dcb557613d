// Package screens builds the view-models behind each destination of the app.
// Every Load function reads fresh from the store; nothing is shared or cached
// between calls. Read failures are logged and degrade to empty results.
package screens

import (
	"context"
	"errors"
	"strings"

	"butce/internal/core"
	"butce/internal/log"
	"butce/internal/store"
)

type Destination string

const (
	Home        Destination = "Home"
	AddExpense  Destination = "AddExpense"
	AddIncome   Destination = "AddIncome"
	AllExpenses Destination = "AllExpenses"
	AllIncomes  Destination = "AllIncomes"
	ExpenseEdit Destination = "ExpenseEdit"
	IncomeEdit  Destination = "IncomeEdit"
	CategoryAdd Destination = "CategoryAdd"
)

// Destinations lists every screen in navigation order, Home first.
func Destinations() []Destination {
	return []Destination{Home, AddIncome, AddExpense, AllIncomes, AllExpenses, IncomeEdit, ExpenseEdit, CategoryAdd}
}

// Route is the API path serving d. Edit routes take the entry id as {id}.
func (d Destination) Route() string {
	switch d {
	case Home:
		return "/api/home"
	case AddIncome:
		return "/api/incomes/new"
	case AddExpense:
		return "/api/expenses/new"
	case AllIncomes:
		return "/api/incomes"
	case AllExpenses:
		return "/api/expenses"
	case IncomeEdit:
		return "/api/incomes/{id}"
	case ExpenseEdit:
		return "/api/expenses/{id}"
	case CategoryAdd:
		return "/api/categories"
	default:
		return ""
	}
}

// Policy decides what happens to stored entries whose amount cannot be read.
type Policy int

const (
	// Lenient keeps the entry with a zero amount.
	Lenient Policy = iota
	// Strict leaves the entry out of lists and totals.
	Strict
)

func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), "strict") {
		return Strict
	}
	return Lenient
}

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// Reader is the part of the store the screens read through.
type Reader interface {
	store.Lister
	store.Getter
	store.Subscriber
}

// Deps is what every screen needs. It carries no ledger state.
type Deps struct {
	Store       Reader
	Policy      Policy
	RecentLimit int
	Logger      *log.Logger
}

func (d Deps) logger() *log.Logger {
	if d.Logger == nil {
		return log.Discard().WithComponent(log.ComponentScreens)
	}
	return d.Logger.WithComponent(log.ComponentScreens)
}

// EntryView is an entry with its display date.
type EntryView struct {
	core.Entry
	DateLabel string `json:"dateLabel"`
}

// Entries returns the plain entries behind views.
func Entries(views []EntryView) []core.Entry {
	out := make([]core.Entry, len(views))
	for i, v := range views {
		out[i] = v.Entry
	}
	return out
}

// decodeEntries applies the amount policy to raw documents.
func (d Deps) decodeEntries(ctx context.Context, kind core.EntryKind, docs []store.Document) []EntryView {
	out := make([]EntryView, 0, len(docs))
	for _, doc := range docs {
		e, err := core.DecodeEntry(kind, doc.ID, doc.Fields)
		if errors.Is(err, core.ErrUnparseableAmount) {
			if d.Policy == Strict {
				d.logger().WarnContext(ctx, "Dropping entry with unreadable amount",
					log.FieldOperation, log.OpDecode,
					log.FieldEntryKind, string(kind),
					log.FieldDocumentID, doc.ID,
					log.FieldAmount, doc.Fields[core.FieldAmount])
				continue
			}
			d.logger().WarnContext(ctx, "Entry amount unreadable, counting it as zero",
				log.FieldOperation, log.OpDecode,
				log.FieldEntryKind, string(kind),
				log.FieldDocumentID, doc.ID,
				log.FieldAmount, doc.Fields[core.FieldAmount])
		}
		out = append(out, EntryView{Entry: e, DateLabel: core.FormatDate(e.Date, err)})
	}
	return out
}

func (d Deps) listEntries(ctx context.Context, kind core.EntryKind, q store.Query) ([]EntryView, error) {
	docs, err := d.Store.List(ctx, store.EntriesOf(kind), q)
	if err != nil {
		return nil, err
	}
	return d.decodeEntries(ctx, kind, docs), nil
}

func (d Deps) listCategories(ctx context.Context, q store.Query) ([]core.Category, error) {
	docs, err := d.Store.List(ctx, store.Categories, q)
	if err != nil {
		return nil, err
	}
	return decodeCategories(docs), nil
}

func decodeCategories(docs []store.Document) []core.Category {
	out := make([]core.Category, len(docs))
	for i, doc := range docs {
		out[i] = core.DecodeCategory(doc.ID, doc.Fields)
	}
	return out
}

// readFailed logs a degraded read of the named view part.
func (d Deps) readFailed(ctx context.Context, what string, err error) {
	d.logger().ErrorContext(ctx, "Store read failed, showing empty result",
		log.FieldOperation, log.OpList,
		"view", what,
		log.FieldError, err)
}
