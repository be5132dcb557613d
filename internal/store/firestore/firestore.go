// Package firestore stores ledger documents in Cloud Firestore, the
// production backend shared with the mobile client.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"butce/internal/log"
	"butce/internal/store"
)

// Config selects the project and credentials. With neither ServiceAccountJSON
// nor ServiceAccountFile set, Application Default Credentials are used, and
// FIRESTORE_EMULATOR_HOST is honoured by the client library.
type Config struct {
	ProjectID          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Store struct {
	client *firestore.Client
	logger *log.Logger
}

var _ store.Store = (*Store)(nil)

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStore)
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("missing firestore project id")
	}

	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Connecting to Firestore",
		"project_id", cfg.ProjectID,
		"has_json", cfg.ServiceAccountJSON != "",
		"file_path", cfg.ServiceAccountFile,
		"emulator", os.Getenv("FIRESTORE_EMULATOR_HOST"))

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Store{client: client, logger: logger}, nil
}

func clientOptions(cfg Config) ([]option.ClientOption, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}, nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		if _, err := os.Stat(cfg.ServiceAccountFile); err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountFile)}, nil
	default:
		return nil, nil
	}
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Ping reads at most one category to prove the project is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(string(store.Categories)).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) List(ctx context.Context, c store.Collection, q store.Query) ([]store.Document, error) {
	fq, err := s.query(c, q)
	if err != nil {
		return nil, err
	}
	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	return documents(snaps), nil
}

func (s *Store) Get(ctx context.Context, c store.Collection, id string) (store.Document, error) {
	if err := check(c); err != nil {
		return store.Document{}, err
	}
	snap, err := s.client.Collection(string(c)).Doc(id).Get(ctx)
	if err != nil {
		return store.Document{}, mapError(fmt.Sprintf("get %s/%s", c, id), err)
	}
	return store.Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *Store) Insert(ctx context.Context, c store.Collection, fields map[string]any) (string, error) {
	if err := check(c); err != nil {
		return "", err
	}
	ref, _, err := s.client.Collection(string(c)).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", c, err)
	}
	return ref.ID, nil
}

// Update fails with store.ErrNotFound when the document does not exist.
func (s *Store) Update(ctx context.Context, c store.Collection, id string, fields map[string]any) error {
	if err := check(c); err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if _, err := s.client.Collection(string(c)).Doc(id).Update(ctx, updates); err != nil {
		return mapError(fmt.Sprintf("update %s/%s", c, id), err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, c store.Collection, id string) error {
	if err := check(c); err != nil {
		return err
	}
	if _, err := s.client.Collection(string(c)).Doc(id).Delete(ctx); err != nil {
		return mapError(fmt.Sprintf("remove %s/%s", c, id), err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, c store.Collection, id string, fields map[string]any) error {
	if err := check(c); err != nil {
		return err
	}
	if _, err := s.client.Collection(string(c)).Doc(id).Set(ctx, fields); err != nil {
		return fmt.Errorf("put %s/%s: %w", c, id, err)
	}
	return nil
}

// Subscribe listens to query snapshots. The first snapshot is read before
// Subscribe returns.
func (s *Store) Subscribe(ctx context.Context, c store.Collection, q store.Query, onChange func([]store.Document)) (store.Subscription, error) {
	fq, err := s.query(c, q)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	it := fq.Snapshots(subCtx)
	first, err := it.Next()
	if err != nil {
		it.Stop()
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", c, err)
	}
	initial, err := first.Documents.GetAll()
	if err != nil {
		it.Stop()
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", c, err)
	}

	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer it.Stop()

		onChange(documents(initial))
		for {
			snap, err := it.Next()
			if err != nil {
				if !errors.Is(err, iterator.Done) && status.Code(err) != codes.Canceled && subCtx.Err() == nil {
					s.logger.Warn("Snapshot listener stopped",
						log.FieldCollection, string(c),
						log.FieldError, err)
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				if subCtx.Err() == nil {
					s.logger.Warn("Snapshot read failed", log.FieldCollection, string(c), log.FieldError, err)
				}
				return
			}
			if subCtx.Err() != nil {
				return
			}
			onChange(documents(docs))
		}
	}()
	return sub, nil
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *Store) query(c store.Collection, q store.Query) (firestore.Query, error) {
	if err := check(c); err != nil {
		return firestore.Query{}, err
	}
	if err := q.Validate(); err != nil {
		return firestore.Query{}, err
	}
	fq := s.client.Collection(string(c)).Query
	if q.WhereField != "" {
		fq = fq.Where(q.WhereField, "==", q.WhereValue)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == store.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq, nil
}

func documents(snaps []*firestore.DocumentSnapshot) []store.Document {
	docs := make([]store.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, store.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs
}

func mapError(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func check(c store.Collection) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", store.ErrUnknownCollection, c)
	}
	return nil
}
