package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

func seedOrder(t *testing.T, docs docstore.Store, id string, status Status) {
	t.Helper()
	require.NoError(t, docs.Put(context.Background(), Collection, id, Order{
		ID:          id,
		CustomerRef: "customers/c1",
		Status:      status,
	}))
}

func TestGetNotFound(t *testing.T) {
	store := NewStore(docstore.NewMemoryStore())

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestTransitionApplies(t *testing.T) {
	docs := docstore.NewMemoryStore()
	store := NewStore(docs)
	ctx := context.Background()

	seedOrder(t, docs, "o1", StatusConfirmed)

	updated, err := store.Transition(ctx, "o1", StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)

	persisted, err := store.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, persisted.Status)
}

func TestTransitionStampsUpdatedAt(t *testing.T) {
	docs := docstore.NewMemoryStore()
	store := NewStore(docs)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return at }

	seedOrder(t, docs, "o1", StatusConfirmed)
	_, err := store.Transition(ctx, "o1", StatusShipped)
	require.NoError(t, err)

	var stamped struct {
		UpdatedAt string `dynamodbav:"updated_at"`
	}
	require.NoError(t, docs.Get(ctx, Collection, "o1", &stamped))
	assert.Equal(t, at.Format(time.RFC3339Nano), stamped.UpdatedAt)
}

func TestTransitionRejectsInvalidTarget(t *testing.T) {
	docs := docstore.NewMemoryStore()
	store := NewStore(docs)
	ctx := context.Background()

	seedOrder(t, docs, "o1", StatusDelivered)

	_, err := store.Transition(ctx, "o1", StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	persisted, err := store.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, persisted.Status)
}

// conflictDocs simulates another writer changing the order between the read
// and the conditional write.
type conflictDocs struct {
	docstore.Store
}

func (c conflictDocs) UpdateWhere(ctx context.Context, collection, id string, fields map[string]any, cond docstore.Predicate) error {
	return docstore.ErrConditionFailed
}

func TestTransitionConcurrentConflict(t *testing.T) {
	docs := docstore.NewMemoryStore()
	seedOrder(t, docs, "o1", StatusConfirmed)

	store := NewStore(conflictDocs{docs})

	_, err := store.Transition(context.Background(), "o1", StatusShipped)
	assert.ErrorIs(t, err, ErrStatusConflict)
}
