package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butce/internal/config"
	"butce/internal/store"
)

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	require.NoError(t, err)
	defer res.Cleanup()

	docs, err := res.Store.List(context.Background(), store.Categories, store.Query{})
	require.NoError(t, err)
	assert.NotEmpty(t, docs, "memory backend seeds default categories")
	assert.Nil(t, res.Ping)
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "butce.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	defer res.Cleanup()

	require.NotNil(t, res.Ping)
	assert.NoError(t, res.Ping(context.Background()))
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{Type: "sheets"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
		{"firestore without project", Config{Type: FirestoreBackend}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(nil).CreateBackend(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "firestore", FirestoreProjectID: "p", GoogleServiceAccountFile: "sa.json"})
	require.NoError(t, err)
	assert.Equal(t, FirestoreBackend, cfg.Type)
	assert.Equal(t, "p", cfg.FirestoreProjectID)
	assert.Equal(t, "sa.json", cfg.GoogleServiceAccountFile)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	mirror := MirrorConfig(&config.Config{MirrorDBPath: "m.db"})
	assert.Equal(t, SQLiteBackend, mirror.Type)
	assert.Equal(t, "m.db", mirror.SQLiteDBPath)
}
