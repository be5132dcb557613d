// Package storetest runs the behaviour every store.Store adapter must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butce/internal/core"
	"butce/internal/store"
)

// Run exercises s. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("InsertGet", func(t *testing.T) { testInsertGet(t, newStore(t)) })
	t.Run("ListQuery", func(t *testing.T) { testListQuery(t, newStore(t)) })
	t.Run("UpdateMerges", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, newStore(t)) })
	t.Run("Put", func(t *testing.T) { testPut(t, newStore(t)) })
	t.Run("Subscribe", func(t *testing.T) { testSubscribe(t, newStore(t)) })
	t.Run("EntryRoundTrip", func(t *testing.T) { testEntryRoundTrip(t, newStore(t)) })
}

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func testInsertGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	id, err := s.Insert(ctx, store.Categories, map[string]any{"name": "Market", "type": "expense"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, store.Categories, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Market", got.Fields["name"])

	_, err = s.Get(ctx, store.Categories, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListQuery(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, _ := s.Insert(ctx, store.Expenses, map[string]any{"amount": 10.0, "category": "Food", "date": day(1)})
	b, _ := s.Insert(ctx, store.Expenses, map[string]any{"amount": 20.0, "category": "Rent", "date": day(3)})
	c, _ := s.Insert(ctx, store.Expenses, map[string]any{"amount": 5.0, "category": "Food", "date": day(2)})
	_, _ = s.Insert(ctx, store.Incomes, map[string]any{"amount": 99.0, "category": "Salary", "date": day(4)})

	// Unordered lists come back in adapter order, which is not insertion
	// order for every backend.
	all, err := s.List(ctx, store.Expenses, store.Query{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b, c}, ids(all))

	recent, err := s.List(ctx, store.Expenses, store.NewestFirst(2))
	require.NoError(t, err)
	assert.Equal(t, []string{b, c}, ids(recent))

	food, err := s.List(ctx, store.Expenses, store.Query{WhereField: "category", WhereValue: "Food"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, c}, ids(food))

	byAmount, err := s.List(ctx, store.Expenses, store.Query{OrderBy: "amount", Direction: store.Asc})
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, ids(byAmount))

	none, err := s.List(ctx, store.Categories, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.List(ctx, store.Expenses, store.Query{OrderBy: "bad field"})
	assert.ErrorIs(t, err, store.ErrInvalidField)
}

func testUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	id, err := s.Insert(ctx, store.Incomes, map[string]any{"amount": 10.0, "category": "Salary", "description": "May"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, store.Incomes, id, map[string]any{"amount": 12.5}))
	got, err := s.Get(ctx, store.Incomes, id)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, got.Fields["amount"], 1e-9)
	assert.Equal(t, "Salary", got.Fields["category"])
	assert.Equal(t, "May", got.Fields["description"])

	err = s.Update(ctx, store.Incomes, "missing", map[string]any{"amount": 1.0})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRemove(t *testing.T, s store.Store) {
	ctx := context.Background()
	id, err := s.Insert(ctx, store.Expenses, map[string]any{"amount": 1.0})
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, store.Expenses, id))
	_, err = s.Get(ctx, store.Expenses, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Remove(ctx, store.Expenses, id))
}

func testPut(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, store.Categories, "fixed-id", map[string]any{"name": "A", "type": "income"}))
	require.NoError(t, s.Put(ctx, store.Categories, "fixed-id", map[string]any{"name": "B"}))

	got, err := s.Get(ctx, store.Categories, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Fields["name"])
	_, hasType := got.Fields["type"]
	assert.False(t, hasType, "put replaces the whole document")
}

func testSubscribe(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Insert(ctx, store.Categories, map[string]any{"name": "Old", "type": "expense", "createdAt": "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)

	snapshots := make(chan []store.Document, 16)
	q := store.Query{OrderBy: "createdAt", Direction: store.Desc}
	sub, err := s.Subscribe(ctx, store.Categories, q, func(d []store.Document) { snapshots <- d })
	require.NoError(t, err)

	first := receive(t, snapshots)
	require.Len(t, first, 1)
	assert.Equal(t, "Old", first[0].Fields["name"])

	_, err = s.Insert(ctx, store.Categories, map[string]any{"name": "New", "type": "income", "createdAt": "2024-02-01T00:00:00.000Z"})
	require.NoError(t, err)

	var latest []store.Document
	require.Eventually(t, func() bool {
		select {
		case latest = <-snapshots:
		default:
		}
		return len(latest) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "New", latest[0].Fields["name"])

	sub.Unsubscribe()
	sub.Unsubscribe()

	for len(snapshots) > 0 {
		<-snapshots
	}
	_, err = s.Insert(ctx, store.Categories, map[string]any{"name": "Late", "type": "income", "createdAt": "2024-03-01T00:00:00.000Z"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, snapshots)
}

func testEntryRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	in := core.Entry{
		Kind:        core.Expense,
		Amount:      core.Money{Cents: 12345},
		Category:    "Market",
		Date:        time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
		Description: "haftalık",
	}
	id, err := s.Insert(ctx, store.Expenses, core.EncodeEntry(in))
	require.NoError(t, err)

	d, err := s.Get(ctx, store.Expenses, id)
	require.NoError(t, err)
	out, err := core.DecodeEntry(core.Expense, d.ID, d.Fields)
	require.NoError(t, err)

	assert.Equal(t, in.Amount, out.Amount)
	assert.Equal(t, in.Category, out.Category)
	assert.True(t, in.Date.Equal(out.Date), "date %v != %v", in.Date, out.Date)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.Description, out.Description)
}

func ids(docs []store.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func receive(t *testing.T, ch <-chan []store.Document) []store.Document {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
