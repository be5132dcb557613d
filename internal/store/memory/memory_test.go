package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butce/internal/core"
	"butce/internal/ledger"
	"butce/internal/store"
	"butce/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s := New(nil)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func categories(t *testing.T, s *Store) []core.Category {
	t.Helper()
	docs, err := s.List(context.Background(), store.Categories, store.Query{OrderBy: core.FieldCreatedAt, Direction: store.Desc})
	require.NoError(t, err)
	out := make([]core.Category, len(docs))
	for i, d := range docs {
		out[i] = core.DecodeCategory(d.ID, d.Fields)
	}
	return out
}

func TestNewFromFilesDefaults(t *testing.T) {
	s := NewFromFiles(t.TempDir(), nil)
	idx := ledger.IndexCategories(categories(t, s))
	assert.NotEmpty(t, idx.Expense)
	assert.NotEmpty(t, idx.Income)
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	content := "# seed\nexpense:Food\n\nincome:Salary\nexpense:Food\nbogus\nsavings:Gold\nexpense:   \n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644))

	s := NewFromFiles(dir, nil)
	cats := categories(t, s)

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c.Type) + ":" + c.Name
	}
	// Duplicates are kept; malformed lines are skipped; newest first keeps file order.
	assert.Equal(t, []string{"expense:Food", "income:Salary", "expense:Food"}, names)
}
