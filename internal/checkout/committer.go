package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/orders"
)

// receiptCollection holds one small document per committed checkout, keyed
// by the caller's idempotency key. Receipts expire via the store's TTL
// mechanism; they only need to outlive client retries.
const receiptCollection = "checkout_receipts"

// Receipt records a committed checkout for duplicate detection.
type Receipt struct {
	OrderID   string `dynamodbav:"order_id"`
	ExpiresAt int64  `dynamodbav:"expires_at"` // TTL epoch seconds
}

// Committer durably persists a composed order and consumes its source cart.
//
// When the store supports multi-document transactions the order write, the
// receipt write and the cart clear happen atomically: either the order
// exists and the cart is gone, or nothing changed. Each cart delete asserts
// the entry version observed at aggregation, so a cart mutated in between
// (second checkout, quantity change) cancels the whole commit with
// ErrCartConflict instead of double-consuming the cart.
//
// On a store without transactions the two-step sequence from the original
// design remains: insert, then batch-delete. A failure between the steps
// leaves the order committed with a stale cart and surfaces
// ErrCartClearFailed alongside the order id.
type Committer struct {
	docs       docstore.Store
	carts      *cart.Store
	receiptTTL time.Duration
	nowFunc    func() time.Time
}

// NewCommitter creates a Committer. receiptTTL bounds how long duplicate
// checkout detection lasts.
func NewCommitter(docs docstore.Store, carts *cart.Store, receiptTTL time.Duration) *Committer {
	return &Committer{
		docs:       docs,
		carts:      carts,
		receiptTTL: receiptTTL,
		nowFunc:    time.Now,
	}
}

// Commit persists the order and clears the snapshot's cart entries,
// returning the new order id.
//
// receiptKey, when non-empty, deduplicates client retries: a second commit
// with the same key returns the original order id with ErrDuplicateCheckout
// instead of creating a second order. An empty key skips deduplication.
func (c *Committer) Commit(ctx context.Context, order orders.Order, snapshot *ResolvedCart, receiptKey string) (string, error) {
	if len(snapshot.Entries) == 0 {
		return "", fmt.Errorf("%w: empty cart snapshot", ErrValidation)
	}

	if txr, ok := c.docs.(docstore.TxRunner); ok {
		return c.commitAtomic(ctx, txr, order, snapshot, receiptKey)
	}
	return c.commitTwoStep(ctx, order, snapshot, receiptKey)
}

func (c *Committer) receipt(orderID string) Receipt {
	return Receipt{
		OrderID:   orderID,
		ExpiresAt: c.nowFunc().Add(c.receiptTTL).Unix(),
	}
}

// commitAtomic writes the order, the receipt and the cart deletes in one
// all-or-nothing transaction.
func (c *Committer) commitAtomic(ctx context.Context, txr docstore.TxRunner, order orders.Order, snapshot *ResolvedCart, receiptKey string) (string, error) {
	orderID := c.docs.NewID()

	ops := []docstore.TxOp{{
		Kind: docstore.TxCreate,
		Ref:  docstore.NewRef(orders.Collection, orderID),
		Doc:  order,
	}}
	if receiptKey != "" {
		ops = append(ops, docstore.TxOp{
			Kind: docstore.TxCreate,
			Ref:  docstore.NewRef(receiptCollection, receiptKey),
			Doc:  c.receipt(orderID),
		})
	}
	for _, entry := range snapshot.Entries {
		ops = append(ops, docstore.TxOp{
			Kind:          docstore.TxDelete,
			Ref:           cart.EntryRef(snapshot.CustomerID, entry.ProductID),
			ExpectVersion: entry.Version,
		})
	}

	err := txr.Transact(ctx, ops)
	if err == nil {
		return orderID, nil
	}
	if !errors.Is(err, docstore.ErrTxConflict) {
		return "", fmt.Errorf("%w: %s", ErrCommitFailed, err)
	}

	// The transaction was cancelled by a condition: either this receipt
	// key already committed, or a cart entry changed since aggregation.
	if receiptKey != "" {
		var rec Receipt
		getErr := c.docs.Get(ctx, receiptCollection, receiptKey, &rec)
		switch {
		case getErr == nil:
			return rec.OrderID, ErrDuplicateCheckout
		case !errors.Is(getErr, docstore.ErrNotFound):
			return "", fmt.Errorf("%w: receipt lookup: %s", ErrCommitFailed, getErr)
		}
	}
	return "", ErrCartConflict
}

// commitTwoStep is the fallback for stores without transaction support:
// insert the order, then clear the current cart as one batch.
func (c *Committer) commitTwoStep(ctx context.Context, order orders.Order, snapshot *ResolvedCart, receiptKey string) (string, error) {
	orderID := c.docs.NewID()

	// The receipt goes in first so a concurrent retry with the same key
	// loses the Create race instead of committing a second order. The cost
	// is a crash window where a receipt points at an order that never
	// landed; claimReceipt detects and reclaims such orphans.
	if receiptKey != "" {
		err := c.docs.Create(ctx, receiptCollection, receiptKey, c.receipt(orderID))
		if errors.Is(err, docstore.ErrExists) {
			dupID, claimErr := c.claimReceipt(ctx, receiptKey, orderID)
			if claimErr != nil {
				return "", claimErr
			}
			if dupID != "" {
				return dupID, ErrDuplicateCheckout
			}
		} else if err != nil {
			return "", fmt.Errorf("%w: %s", ErrCommitFailed, err)
		}
	}

	if err := c.docs.Create(ctx, orders.Collection, orderID, order); err != nil {
		if receiptKey != "" {
			// Release the receipt so the client can retry.
			_ = c.docs.Delete(ctx, receiptCollection, receiptKey)
		}
		return "", fmt.Errorf("%w: %s", ErrCommitFailed, err)
	}

	// Step 2: consume the customer's current cart as a single batch. From
	// here on the order is committed; a failure leaves the known
	// inconsistency window the worker reconciles later.
	entries, err := c.carts.List(ctx, snapshot.CustomerID)
	if err != nil {
		return orderID, fmt.Errorf("%w: %s", ErrCartClearFailed, err)
	}
	refs := make([]docstore.Ref, 0, len(entries))
	for _, entry := range entries {
		refs = append(refs, cart.EntryRef(snapshot.CustomerID, entry.ProductID))
	}
	if err := c.docs.BatchDelete(ctx, refs); err != nil {
		return orderID, fmt.Errorf("%w: %s", ErrCartClearFailed, err)
	}
	return orderID, nil
}

// claimReceipt resolves an existing receipt under receiptKey. When the
// receipt's order committed, its id is returned for duplicate reporting.
// When the order never landed (a commit died between its receipt write and
// its order write) the stale receipt is replaced with one for orderID,
// handing the key to the current commit; the returned id is then empty.
func (c *Committer) claimReceipt(ctx context.Context, receiptKey, orderID string) (string, error) {
	var rec Receipt
	if err := c.docs.Get(ctx, receiptCollection, receiptKey, &rec); err != nil {
		return "", fmt.Errorf("%w: receipt lookup: %s", ErrCommitFailed, err)
	}

	var committed orders.Order
	err := c.docs.Get(ctx, orders.Collection, rec.OrderID, &committed)
	if err == nil {
		return rec.OrderID, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return "", fmt.Errorf("%w: order lookup: %s", ErrCommitFailed, err)
	}

	if err := c.docs.Delete(ctx, receiptCollection, receiptKey); err != nil {
		return "", fmt.Errorf("%w: %s", ErrCommitFailed, err)
	}
	if err := c.docs.Create(ctx, receiptCollection, receiptKey, c.receipt(orderID)); err != nil {
		return "", fmt.Errorf("%w: %s", ErrCommitFailed, err)
	}
	return "", nil
}
