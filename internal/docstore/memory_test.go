package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var missing testDoc
	assert.ErrorIs(t, store.Get(ctx, "orders", "nope", &missing), ErrNotFound)

	require.NoError(t, store.Put(ctx, "orders", "o1", testDoc{Name: "a", Count: 1}))

	var got testDoc
	require.NoError(t, store.Get(ctx, "orders", "o1", &got))
	assert.Equal(t, "a", got.Name)

	require.NoError(t, store.Update(ctx, "orders", "o1", map[string]any{"count": 9}))
	require.NoError(t, store.Get(ctx, "orders", "o1", &got))
	assert.Equal(t, 9, got.Count)

	require.NoError(t, store.Delete(ctx, "orders", "o1"))
	assert.ErrorIs(t, store.Get(ctx, "orders", "o1", &got), ErrNotFound)

	// deleting again is a no-op
	assert.NoError(t, store.Delete(ctx, "orders", "o1"))
}

func TestMemoryStoreInsertUsesInjectedClockAndIDs(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return now })
	store.SetIDFunc(func() string { return "fixed-id" })

	id, createdAt, err := store.Insert(context.Background(), "orders", testDoc{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
	assert.Equal(t, now, createdAt)
}

func TestMemoryStoreCreateConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "checkout_receipts", "k1", testDoc{Name: "first"}))
	assert.ErrorIs(t, store.Create(ctx, "checkout_receipts", "k1", testDoc{Name: "second"}), ErrExists)
}

func TestMemoryStoreRecreatedKeyGetsFreshRevision(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	type versioned struct {
		Version int64 `dynamodbav:"doc_version"`
	}

	require.NoError(t, store.Put(ctx, "customers/c1/cart", "p1", testDoc{Count: 2}))
	var first versioned
	require.NoError(t, store.Get(ctx, "customers/c1/cart", "p1", &first))

	require.NoError(t, store.Delete(ctx, "customers/c1/cart", "p1"))
	require.NoError(t, store.Put(ctx, "customers/c1/cart", "p1", testDoc{Count: 5}))

	var second versioned
	require.NoError(t, store.Get(ctx, "customers/c1/cart", "p1", &second))
	assert.NotZero(t, second.Version)
	assert.NotEqual(t, first.Version, second.Version)
}

func TestMemoryStoreUpdateWhere(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "orders", "o1", testDoc{Name: "confirmed"}))

	require.NoError(t, store.UpdateWhere(ctx, "orders", "o1",
		map[string]any{"name": "shipped"}, Eq("name", "confirmed")))

	err := store.UpdateWhere(ctx, "orders", "o1",
		map[string]any{"name": "delivered"}, Eq("name", "confirmed"))
	assert.ErrorIs(t, err, ErrConditionFailed)

	err = store.UpdateWhere(ctx, "orders", "absent",
		map[string]any{"name": "x"}, Eq("name", "confirmed"))
	assert.ErrorIs(t, err, ErrConditionFailed)
}

func TestMemoryStoreQueryPredicates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "orders", "o1", testDoc{Name: "a", Tags: []string{"s1"}}))
	require.NoError(t, store.Put(ctx, "orders", "o2", testDoc{Name: "b", Tags: []string{"s1", "s2"}}))

	var byName []testDoc
	require.NoError(t, store.Query(ctx, "orders", &byName, Eq("name", "a")))
	require.Len(t, byName, 1)
	assert.Equal(t, "a", byName[0].Name)

	var byTag []testDoc
	require.NoError(t, store.Query(ctx, "orders", &byTag, ArrayContains("tags", "s1")))
	assert.Len(t, byTag, 2)

	var none []testDoc
	require.NoError(t, store.Query(ctx, "other", &none))
	assert.Empty(t, none)
}

func TestMemoryStoreBatchDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "customers/c1/cart", "p1", testDoc{}))
	require.NoError(t, store.Put(ctx, "customers/c1/cart", "p2", testDoc{}))

	require.NoError(t, store.BatchDelete(ctx, []Ref{
		NewRef("customers/c1/cart", "p1"),
		NewRef("customers/c1/cart", "p2"),
	}))

	var rest []testDoc
	require.NoError(t, store.Query(ctx, "customers/c1/cart", &rest))
	assert.Empty(t, rest)
}
