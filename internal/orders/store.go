package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

// ErrStatusConflict indicates the order's status changed between read and
// write; the caller saw a stale state and may retry.
var ErrStatusConflict = errors.New("order status changed concurrently")

// Store encapsulates reads and status mutations of committed orders.
// Order creation happens in the checkout committer, not here: an order is
// only ever written together with the consumption of its source cart.
type Store struct {
	docs    docstore.Store
	nowFunc func() time.Time
}

// NewStore creates an orders Store.
func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs, nowFunc: time.Now}
}

// Get fetches an order by id. docstore.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	if err := s.docs.Get(ctx, Collection, orderID, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Transition moves the order to target, enforcing the lifecycle transition
// table at the point of mutation. The write is conditional on the status the
// caller read, so two racing transitions cannot both apply: the loser gets
// ErrStatusConflict.
func (s *Store) Transition(ctx context.Context, orderID string, target Status) (*Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := CheckTransition(o.Status, target); err != nil {
		return nil, err
	}

	err = s.docs.UpdateWhere(ctx, Collection, orderID,
		map[string]any{
			"status":     target,
			"updated_at": s.nowFunc().UTC().Format(time.RFC3339Nano),
		},
		docstore.Eq("status", o.Status),
	)
	if err != nil {
		if errors.Is(err, docstore.ErrConditionFailed) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	o.Status = target
	return o, nil
}
