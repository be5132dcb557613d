package firestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butce/internal/store"
	"butce/internal/store/storetest"
)

func TestClientOptions(t *testing.T) {
	opts, err := clientOptions(Config{ProjectID: "p"})
	require.NoError(t, err)
	assert.Empty(t, opts, "falls back to application default credentials")

	opts, err = clientOptions(Config{ProjectID: "p", ServiceAccountJSON: `{"type":"service_account"}`})
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	_, err = clientOptions(Config{ProjectID: "p", ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestNewRequiresProject(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

// TestStoreContract runs against the Firestore emulator when
// FIRESTORE_EMULATOR_HOST is set.
func TestStoreContract(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		project := fmt.Sprintf("butce-test-%d", time.Now().UnixNano())
		s, err := New(context.Background(), Config{ProjectID: project}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
