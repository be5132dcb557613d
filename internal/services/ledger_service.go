package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"butce/internal/amqp"
	"butce/internal/core"
	"butce/internal/ledger"
	"butce/internal/log"
	"butce/internal/store"
)

// Publisher announces ledger changes to downstream consumers.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

type Options struct {
	// EnforceCategoryType rejects entries whose category is not a category of
	// the entry's type.
	EnforceCategoryType bool
	Logger              *log.Logger
	Now                 func() time.Time
}

// LedgerService orchestrates ledger writes: validate, write to the store,
// then publish a change message. A failed publish never fails the write.
type LedgerService struct {
	store     store.Store
	publisher Publisher
	enforce   bool
	logger    *log.Logger
	audit     *log.StructuredLogger
	now       func() time.Time
}

// NewLedgerService wires the service. publisher may be nil.
func NewLedgerService(s store.Store, publisher Publisher, opts Options) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		store:     s,
		publisher: publisher,
		enforce:   opts.EnforceCategoryType,
		logger:    logger.WithComponent(log.ComponentLedger),
		audit:     log.NewStructuredLogger(logger),
		now:       now,
	}
}

// AddEntry validates in and stores it as a new entry of kind.
func (s *LedgerService) AddEntry(ctx context.Context, kind core.EntryKind, in core.EntryInput) (core.Entry, error) {
	e, err := in.Entry(kind, s.now().UTC())
	if err != nil {
		return core.Entry{}, err
	}
	if err := s.checkCategory(ctx, kind, e.Category); err != nil {
		return core.Entry{}, err
	}

	c := store.EntriesOf(kind)
	id, err := s.store.Insert(ctx, c, core.EncodeEntry(e))
	if err != nil {
		return core.Entry{}, fmt.Errorf("save %s: %w", kind, err)
	}
	e.ID = id

	s.audit.LogEntrySaved(ctx, log.OpCreate, string(kind), id, e.Category, e.Amount.Cents)
	s.publish(ctx, c, id, amqp.OpCreate)
	return e, nil
}

// UpdateEntry overwrites amount, category and date of an existing entry.
// createdAt and description are kept.
func (s *LedgerService) UpdateEntry(ctx context.Context, kind core.EntryKind, id string, in core.EntryInput) (core.Entry, error) {
	e, err := in.Entry(kind, time.Time{})
	if err != nil {
		return core.Entry{}, err
	}
	if err := s.checkCategory(ctx, kind, e.Category); err != nil {
		return core.Entry{}, err
	}

	c := store.EntriesOf(kind)
	if err := s.store.Update(ctx, c, id, core.EncodeEntryUpdate(e)); err != nil {
		return core.Entry{}, fmt.Errorf("update %s %s: %w", kind, id, err)
	}

	doc, err := s.store.Get(ctx, c, id)
	if err != nil {
		return core.Entry{}, fmt.Errorf("reload %s %s: %w", kind, id, err)
	}
	updated, _ := core.DecodeEntry(kind, doc.ID, doc.Fields)

	s.audit.LogEntrySaved(ctx, log.OpUpdate, string(kind), id, e.Category, e.Amount.Cents)
	s.publish(ctx, c, id, amqp.OpUpdate)
	return updated, nil
}

// DeleteEntry removes an entry. A missing entry is store.ErrNotFound.
func (s *LedgerService) DeleteEntry(ctx context.Context, kind core.EntryKind, id string) error {
	if !kind.Valid() {
		return core.ErrInvalidKind
	}
	c := store.EntriesOf(kind)
	if _, err := s.store.Get(ctx, c, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if err := s.store.Remove(ctx, c, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}

	s.logger.InfoContext(ctx, "Entry deleted",
		log.FieldEntryKind, string(kind),
		log.FieldDocumentID, id)
	s.publish(ctx, c, id, amqp.OpDelete)
	return nil
}

// AddCategory stores a new category. Names may repeat.
func (s *LedgerService) AddCategory(ctx context.Context, name, typ string) (core.Category, error) {
	t, err := core.ParseCategoryType(typ)
	if err != nil {
		return core.Category{}, core.ValidationError(err)
	}
	cat, err := core.NewCategory(name, t, s.now().UTC())
	if err != nil {
		return core.Category{}, err
	}

	id, err := s.store.Insert(ctx, store.Categories, core.EncodeCategory(cat))
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	cat.ID = id

	s.logger.InfoContext(ctx, "Category added",
		log.FieldDocumentID, id,
		log.FieldCategory, cat.Name,
		"type", string(cat.Type))
	s.publish(ctx, store.Categories, id, amqp.OpCreate)
	return cat, nil
}

func (s *LedgerService) checkCategory(ctx context.Context, kind core.EntryKind, name string) error {
	if !s.enforce {
		return nil
	}
	docs, err := s.store.List(ctx, store.Categories, store.CategoriesOfType(kind.CategoryType()))
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	cats := make([]core.Category, len(docs))
	for i, d := range docs {
		cats[i] = core.DecodeCategory(d.ID, d.Fields)
	}
	if !ledger.IndexCategories(cats).Has(kind.CategoryType(), name) {
		return core.ValidationError(core.ErrCategoryTypeMismatch)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, c store.Collection, id, op string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping change message")
		return
	}
	msg := amqp.NewChangeMessage(string(c), id, op)
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change message",
			log.FieldMessageID, msg.MessageID,
			log.FieldCollection, string(c),
			log.FieldDocumentID, id,
			log.FieldError, err)
	}
}

// Close closes the publisher when it holds a connection.
func (s *LedgerService) Close() error {
	if closer, ok := s.publisher.(io.Closer); ok && closer != nil {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
