package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butce/internal/amqp"
	"butce/internal/cache"
	"butce/internal/store"
	"butce/internal/store/memory"
)

func newStores(t *testing.T) (*memory.Store, *memory.Store) {
	t.Helper()
	primary, mirror := memory.New(nil), memory.New(nil)
	t.Cleanup(func() {
		_ = primary.Close()
		_ = mirror.Close()
	})
	return primary, mirror
}

func newWorker(primary Source, mirror Sink) *MirrorWorker {
	return NewMirrorWorker(primary, mirror, cache.NewLRUCache[time.Time](100, time.Hour), nil)
}

func TestHandleChange_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	primary, mirror := newStores(t)
	w := newWorker(primary, mirror)

	id, err := primary.Insert(ctx, store.Expenses, map[string]any{"amount": 10.0, "category": "Food"})
	require.NoError(t, err)
	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage("expenses", id, amqp.OpCreate)))

	got, err := mirror.Get(ctx, store.Expenses, id)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Fields["category"])

	require.NoError(t, primary.Update(ctx, store.Expenses, id, map[string]any{"category": "Rent"}))
	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage("expenses", id, amqp.OpUpdate)))

	got, err = mirror.Get(ctx, store.Expenses, id)
	require.NoError(t, err)
	assert.Equal(t, "Rent", got.Fields["category"])
}

func TestHandleChange_Delete(t *testing.T) {
	ctx := context.Background()
	primary, mirror := newStores(t)
	w := newWorker(primary, mirror)

	require.NoError(t, mirror.Put(ctx, store.Incomes, "x", map[string]any{"amount": 1.0}))
	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage("incomes", "x", amqp.OpDelete)))

	_, err := mirror.Get(ctx, store.Incomes, "x")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting something the mirror never had is fine.
	assert.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage("incomes", "never", amqp.OpDelete)))
}

func TestHandleChange_CreateOfVanishedDocumentRemoves(t *testing.T) {
	ctx := context.Background()
	primary, mirror := newStores(t)
	w := newWorker(primary, mirror)

	require.NoError(t, mirror.Put(ctx, store.Categories, "gone", map[string]any{"name": "Old"}))
	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage("categories", "gone", amqp.OpUpdate)))

	_, err := mirror.Get(ctx, store.Categories, "gone")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandleChange_DeduplicatesRedelivery(t *testing.T) {
	ctx := context.Background()
	primary, mirror := newStores(t)
	w := newWorker(primary, mirror)

	id, _ := primary.Insert(ctx, store.Expenses, map[string]any{"amount": 1.0})
	msg := amqp.NewChangeMessage("expenses", id, amqp.OpCreate)
	require.NoError(t, w.HandleChange(ctx, msg))

	// Mirror drifts; a redelivered message must not touch it.
	require.NoError(t, mirror.Put(ctx, store.Expenses, id, map[string]any{"amount": 99.0}))
	require.NoError(t, w.HandleChange(ctx, msg))

	got, _ := mirror.Get(ctx, store.Expenses, id)
	assert.InDelta(t, 99.0, got.Fields["amount"], 1e-9)
}

type brokenSource struct{ Source }

func (brokenSource) Get(context.Context, store.Collection, string) (store.Document, error) {
	return store.Document{}, errors.New("primary unavailable")
}

func TestHandleChange_PrimaryFailureRequeues(t *testing.T) {
	ctx := context.Background()
	_, mirror := newStores(t)
	w := newWorker(brokenSource{}, mirror)

	msg := amqp.NewChangeMessage("expenses", "a", amqp.OpCreate)
	assert.Error(t, w.HandleChange(ctx, msg))
	// Not remembered, so the redelivery is applied.
	assert.False(t, w.seen.Contains(msg.MessageID))
}

func TestHandleChange_UnknownCollectionIsDropped(t *testing.T) {
	primary, mirror := newStores(t)
	w := newWorker(primary, mirror)
	assert.NoError(t, w.HandleChange(context.Background(), amqp.NewChangeMessage("users", "a", amqp.OpCreate)))
}

func TestResync(t *testing.T) {
	ctx := context.Background()
	primary, mirror := newStores(t)
	w := newWorker(primary, mirror)

	a, _ := primary.Insert(ctx, store.Expenses, map[string]any{"amount": 1.0})
	b, _ := primary.Insert(ctx, store.Categories, map[string]any{"name": "Food"})
	require.NoError(t, mirror.Put(ctx, store.Expenses, "stale", map[string]any{"amount": 5.0}))

	require.NoError(t, w.Resync(ctx))

	_, err := mirror.Get(ctx, store.Expenses, a)
	assert.NoError(t, err)
	_, err = mirror.Get(ctx, store.Categories, b)
	assert.NoError(t, err)
	_, err = mirror.Get(ctx, store.Expenses, "stale")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
