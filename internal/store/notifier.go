package store

import (
	"context"
	"fmt"
	"sync"

	"butce/internal/log"
)

// LoadFunc reads the current result set of a query.
type LoadFunc func(ctx context.Context, c Collection, q Query) ([]Document, error)

// Notifier fans collection changes out to subscribers for adapters that have
// no native change feed. Each subscriber reloads its own query on a dedicated
// goroutine; bursts of changes collapse into a single reload.
type Notifier struct {
	load   LoadFunc
	logger *log.Logger

	mu   sync.Mutex
	subs map[Collection]map[*subscription]struct{}
}

func NewNotifier(load LoadFunc, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &Notifier{
		load:   load,
		logger: logger.WithComponent(log.ComponentStore),
		subs:   make(map[Collection]map[*subscription]struct{}),
	}
}

type subscription struct {
	n        *Notifier
	c        Collection
	q        Query
	onChange func([]Document)

	dirty chan struct{}
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// Subscribe loads the initial result set before returning, so a failing
// store is reported to the caller instead of to the callback.
func (n *Notifier) Subscribe(ctx context.Context, c Collection, q Query, onChange func([]Document)) (Subscription, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	initial, err := n.load(ctx, c, q)
	if err != nil {
		return nil, fmt.Errorf("initial load of %s: %w", c, err)
	}

	s := &subscription{
		n:        n,
		c:        c,
		q:        q,
		onChange: onChange,
		dirty:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	n.mu.Lock()
	if n.subs[c] == nil {
		n.subs[c] = make(map[*subscription]struct{})
	}
	n.subs[c][s] = struct{}{}
	n.mu.Unlock()

	go s.run(ctx, initial)
	return s, nil
}

// Notify marks every subscription on c as stale.
func (n *Notifier) Notify(c Collection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for s := range n.subs[c] {
		select {
		case s.dirty <- struct{}{}:
		default:
		}
	}
}

// Close ends every subscription.
func (n *Notifier) Close() {
	n.mu.Lock()
	var all []*subscription
	for _, set := range n.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	n.mu.Unlock()

	for _, s := range all {
		s.Unsubscribe()
	}
}

func (n *Notifier) remove(s *subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs[s.c], s)
}

func (s *subscription) run(ctx context.Context, initial []Document) {
	defer close(s.done)

	s.onChange(initial)
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			s.n.remove(s)
			return
		case <-s.dirty:
		}

		docs, err := s.n.load(ctx, s.c, s.q)
		if err != nil {
			s.n.logger.Warn("Subscription reload failed",
				log.FieldCollection, string(s.c),
				log.FieldError, err)
			continue
		}
		// A stop that raced the reload wins.
		select {
		case <-s.stop:
			return
		default:
		}
		s.onChange(docs)
	}
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.n.remove(s)
		close(s.stop)
	})
	<-s.done
}
