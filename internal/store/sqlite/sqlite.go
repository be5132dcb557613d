// Package sqlite keeps ledger documents as JSON rows in a single SQLite table.
// It backs local development and the mirror worker.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"butce/internal/log"
	"butce/internal/store"
)

// timeLayout is fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db       *sql.DB
	logger   *log.Logger
	notifier *store.Notifier
}

func New(dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite would otherwise answer SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, logger: logger.WithComponent(log.ComponentStore)}
	s.notifier = store.NewNotifier(s.List, logger)
	return s, nil
}

func (s *Store) Close() error {
	s.notifier.Close()
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) List(ctx context.Context, c store.Collection, q store.Query) ([]store.Document, error) {
	if err := check(c); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		sb   strings.Builder
		args = []any{string(c)}
	)
	sb.WriteString("SELECT id, data FROM documents WHERE collection = ?")
	if q.WhereField != "" {
		sb.WriteString(" AND json_extract(data, ?) = ?")
		args = append(args, jsonPath(q.WhereField), encodeScalar(q.WhereValue))
	}
	if q.OrderBy != "" {
		sb.WriteString(" AND json_type(data, ?) IS NOT NULL ORDER BY json_extract(data, ?)")
		args = append(args, jsonPath(q.OrderBy), jsonPath(q.OrderBy))
		if q.Direction == store.Desc {
			sb.WriteString(" DESC")
		}
		sb.WriteString(", rowid")
	} else {
		sb.WriteString(" ORDER BY rowid")
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer rows.Close()

	docs := []store.Document{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		fields, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c, id, err)
		}
		docs = append(docs, store.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, c store.Collection, id string) (store.Document, error) {
	if err := check(c); err != nil {
		return store.Document{}, err
	}
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND id = ?", string(c), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("get %s/%s: %w", c, id, err)
	}
	fields, err := decode(data)
	if err != nil {
		return store.Document{}, fmt.Errorf("decode %s/%s: %w", c, id, err)
	}
	return store.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Insert(ctx context.Context, c store.Collection, fields map[string]any) (string, error) {
	if err := check(c); err != nil {
		return "", err
	}
	data, err := encode(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)", string(c), id, data); err != nil {
		return "", fmt.Errorf("insert %s: %w", c, err)
	}

	s.logger.DebugContext(ctx, "Document inserted", log.FieldCollection, string(c), log.FieldDocumentID, id)
	s.notifier.Notify(c)
	return id, nil
}

// Update merges fields with json_patch, so keys not named are kept.
func (s *Store) Update(ctx context.Context, c store.Collection, id string, fields map[string]any) error {
	if err := check(c); err != nil {
		return err
	}
	patch, err := encode(fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET data = json_patch(data, ?) WHERE collection = ? AND id = ?", patch, string(c), id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c, id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	s.notifier.Notify(c)
	return nil
}

func (s *Store) Remove(ctx context.Context, c store.Collection, id string) error {
	if err := check(c); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", string(c), id)
	if err != nil {
		return fmt.Errorf("remove %s/%s: %w", c, id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notifier.Notify(c)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, c store.Collection, id string, fields map[string]any) error {
	if err := check(c); err != nil {
		return err
	}
	data, err := encode(fields)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`,
		string(c), id, data); err != nil {
		return fmt.Errorf("put %s/%s: %w", c, id, err)
	}

	s.notifier.Notify(c)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, c store.Collection, q store.Query, onChange func([]store.Document)) (store.Subscription, error) {
	return s.notifier.Subscribe(ctx, c, q, onChange)
}

func check(c store.Collection) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", store.ErrUnknownCollection, c)
	}
	return nil
}

func jsonPath(field string) string {
	return "$." + field
}

// encodeScalar turns a filter value into what json_extract yields for it.
func encodeScalar(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(timeLayout)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return v
	}
}

func encode(fields map[string]any) (string, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case time.Time:
			out[k] = t.UTC().Format(timeLayout)
		case *time.Time:
			if t != nil {
				out[k] = t.UTC().Format(timeLayout)
			} else {
				out[k] = nil
			}
		default:
			out[k] = v
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func decode(data string) (map[string]any, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		str, ok := v.(string)
		if !ok || len(str) != len(timeLayout) {
			continue
		}
		if t, err := time.Parse(timeLayout, str); err == nil {
			fields[k] = t
		}
	}
	return fields, nil
}
