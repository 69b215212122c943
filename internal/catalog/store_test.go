package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

func TestPublishAndGet(t *testing.T) {
	store := NewStore(docstore.NewMemoryStore())
	ctx := context.Background()

	id, err := store.Publish(ctx, Product{
		SellerID:  "s1",
		Name:      "clay mug",
		Price:     1250,
		Stock:     4,
		Available: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	p, err := store.Get(ctx, "s1", id)
	require.NoError(t, err)
	assert.Equal(t, "clay mug", p.Name)
	assert.Equal(t, int64(1250), p.Price)

	// products live under their seller, not globally
	_, err = store.Get(ctx, "s2", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestUpdateAndUnpublish(t *testing.T) {
	store := NewStore(docstore.NewMemoryStore())
	ctx := context.Background()

	id, err := store.Publish(ctx, Product{SellerID: "s1", Name: "bowl", Price: 900, Available: true})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, "s1", id, map[string]any{"price": int64(700), "available": false}))

	p, err := store.Get(ctx, "s1", id)
	require.NoError(t, err)
	assert.Equal(t, int64(700), p.Price)
	assert.False(t, p.Available)

	require.NoError(t, store.Unpublish(ctx, "s1", id))
	_, err = store.Get(ctx, "s1", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestListBySeller(t *testing.T) {
	store := NewStore(docstore.NewMemoryStore())
	ctx := context.Background()

	for _, name := range []string{"mug", "bowl"} {
		_, err := store.Publish(ctx, Product{SellerID: "s1", Name: name, Available: true})
		require.NoError(t, err)
	}
	_, err := store.Publish(ctx, Product{SellerID: "s2", Name: "vase", Available: true})
	require.NoError(t, err)

	products, err := store.ListBySeller(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestRefPaths(t *testing.T) {
	assert.Equal(t, "products/s1/published_products", Collection("s1"))
	assert.Equal(t, "products/s1/published_products/p1", ProductRef("s1", "p1").Path())
	assert.Equal(t, "seller/s1", SellerRef("s1").Path())
}
