// Package memory is an in-process store used for development and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"butce/internal/core"
	"butce/internal/log"
	"butce/internal/store"
)

type record struct {
	seq    int64
	fields map[string]any
}

type Store struct {
	mu   sync.RWMutex
	seq  int64
	docs map[store.Collection]map[string]record

	notifier *store.Notifier
}

func New(logger *log.Logger) *Store {
	s := &Store{docs: make(map[store.Collection]map[string]record)}
	for _, c := range store.Collections() {
		s.docs[c] = make(map[string]record)
	}
	s.notifier = store.NewNotifier(s.List, logger)
	return s
}

// NewFromFiles seeds categories from base/seed_categories.txt, one
// "type:name" per line. Built-in defaults are used when the file is missing
// or empty.
func NewFromFiles(base string, logger *log.Logger) *Store {
	cats := readSeeds(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = defaultCategories()
	}
	s := New(logger)
	s.Seed(cats)
	return s
}

// Seed inserts categories without notifying subscribers.
func (s *Store) Seed(cats []core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cats {
		s.seq++
		s.docs[store.Categories][uuid.NewString()] = record{seq: s.seq, fields: core.EncodeCategory(c)}
	}
}

func (s *Store) List(_ context.Context, c store.Collection, q store.Query) ([]store.Document, error) {
	if err := check(c); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	recs := make([]struct {
		seq int64
		doc store.Document
	}, 0, len(s.docs[c]))
	for id, r := range s.docs[c] {
		recs = append(recs, struct {
			seq int64
			doc store.Document
		}{r.seq, store.Document{ID: id, Fields: store.CopyFields(r.fields)}})
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	docs := make([]store.Document, len(recs))
	for i, r := range recs {
		docs[i] = r.doc
	}
	return store.Apply(docs, q), nil
}

func (s *Store) Get(_ context.Context, c store.Collection, id string) (store.Document, error) {
	if err := check(c); err != nil {
		return store.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.docs[c][id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{ID: id, Fields: store.CopyFields(r.fields)}, nil
}

func (s *Store) Insert(_ context.Context, c store.Collection, fields map[string]any) (string, error) {
	if err := check(c); err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.seq++
	s.docs[c][id] = record{seq: s.seq, fields: store.CopyFields(fields)}
	s.mu.Unlock()

	s.notifier.Notify(c)
	return id, nil
}

func (s *Store) Update(_ context.Context, c store.Collection, id string, fields map[string]any) error {
	if err := check(c); err != nil {
		return err
	}
	s.mu.Lock()
	r, ok := s.docs[c][id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	merged := store.CopyFields(r.fields)
	for k, v := range fields {
		merged[k] = v
	}
	s.docs[c][id] = record{seq: r.seq, fields: merged}
	s.mu.Unlock()

	s.notifier.Notify(c)
	return nil
}

// Remove deletes a document. Removing a missing document is not an error.
func (s *Store) Remove(_ context.Context, c store.Collection, id string) error {
	if err := check(c); err != nil {
		return err
	}
	s.mu.Lock()
	_, ok := s.docs[c][id]
	delete(s.docs[c], id)
	s.mu.Unlock()

	if ok {
		s.notifier.Notify(c)
	}
	return nil
}

func (s *Store) Put(_ context.Context, c store.Collection, id string, fields map[string]any) error {
	if err := check(c); err != nil {
		return err
	}
	s.mu.Lock()
	r, ok := s.docs[c][id]
	if !ok {
		s.seq++
		r.seq = s.seq
	}
	s.docs[c][id] = record{seq: r.seq, fields: store.CopyFields(fields)}
	s.mu.Unlock()

	s.notifier.Notify(c)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, c store.Collection, q store.Query, onChange func([]store.Document)) (store.Subscription, error) {
	return s.notifier.Subscribe(ctx, c, q, onChange)
}

func (s *Store) Close() error {
	s.notifier.Close()
	return nil
}

func check(c store.Collection) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", store.ErrUnknownCollection, c)
	}
	return nil
}

func defaultCategories() []core.Category {
	return seedCategories([]string{
		"expense:Market",
		"expense:Kira",
		"expense:Ulaşım",
		"expense:Faturalar",
		"income:Maaş",
		"income:Ek Gelir",
	})
}

func readSeeds(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return seedCategories(lines)
}

// seedCategories parses "type:name" lines, skipping malformed ones. createdAt
// steps back one second per line so newest-first lists keep the file order.
func seedCategories(lines []string) []core.Category {
	base := time.Now().UTC()
	var out []core.Category
	for _, line := range lines {
		typ, name, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		t, err := core.ParseCategoryType(typ)
		if err != nil {
			continue
		}
		c, err := core.NewCategory(strings.TrimSpace(name), t, base.Add(-time.Duration(len(out))*time.Second))
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}
