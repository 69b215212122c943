package checkout

import (
	"errors"

	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/catalog"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

// Error taxonomy of the checkout workflow. Handlers map these onto HTTP
// statuses; nothing below the handler layer retries or swallows them.
var (
	// ErrValidation: caller-supplied data failed a required-field check.
	// No write was attempted.
	ErrValidation = errors.New("validation failed")
	// ErrIntegrity: resolved data violates a model invariant (corrupted
	// upstream data, not user error). No write was attempted.
	ErrIntegrity = errors.New("integrity violation")
	// ErrCommitFailed: the order write itself failed. Nothing was
	// persisted; safe to retry.
	ErrCommitFailed = errors.New("order commit failed")
	// ErrCartClearFailed: the order exists but the cart could not be
	// cleared (non-transactional path only). The cart may re-display
	// already-ordered items until reconciled.
	ErrCartClearFailed = errors.New("cart clear failed after commit")
	// ErrCartConflict: the cart changed between aggregation and commit.
	// Nothing was persisted; re-aggregate and retry.
	ErrCartConflict = errors.New("cart changed since aggregation")
	// ErrDuplicateCheckout: a checkout with the same receipt key already
	// committed. The original order id accompanies this error.
	ErrDuplicateCheckout = errors.New("checkout already committed")
)

// ResolvedLine is one cart entry joined with its published product.
// EntryVersion pins the cart document revision observed at aggregation; the
// commit asserts it when consuming the entry.
type ResolvedLine struct {
	Product      catalog.Product
	ProductRef   docstore.Ref
	SellerRef    docstore.Ref
	Quantity     int
	EntryVersion int64
}

// ResolvedCart is the aggregator's output: the resolvable lines of a
// customer's cart with computed totals. Lines whose product no longer
// resolves are dropped from the aggregate and listed in Dropped, so callers
// can surface the loss instead of silently absorbing it.
type ResolvedCart struct {
	CustomerID string
	Lines      []ResolvedLine
	Dropped    []string // product ids that failed to resolve
	// Entries is the raw cart snapshot the aggregate was computed from,
	// including entries behind dropped lines. The commit consumes exactly
	// this set, asserting each entry's version.
	Entries  []cart.Entry
	Subtotal int64
	Shipping int64
	Total    int64
}
