package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

// ErrBadQuantity rejects non-positive quantities.
var ErrBadQuantity = errors.New("quantity must be at least 1")

// Store encapsulates a customer's cart entries.
type Store struct {
	docs docstore.Store
}

// NewStore creates a cart Store.
func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Add puts a product in the customer's cart. A repeat add of the same
// product increments the existing quantity. Returns the resulting quantity.
func (s *Store) Add(ctx context.Context, customerID, productID, sellerID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, ErrBadQuantity
	}

	collection := Collection(customerID)

	var existing Entry
	err := s.docs.Get(ctx, collection, productID, &existing)
	switch {
	case err == nil:
		newQuantity := existing.Quantity + quantity
		if err := s.docs.Update(ctx, collection, productID, map[string]any{"quantity": newQuantity}); err != nil {
			return 0, fmt.Errorf("update cart entry: %w", err)
		}
		return newQuantity, nil
	case errors.Is(err, docstore.ErrNotFound):
		entry := Entry{ProductID: productID, SellerID: sellerID, Quantity: quantity}
		if err := s.docs.Put(ctx, collection, productID, entry); err != nil {
			return 0, fmt.Errorf("put cart entry: %w", err)
		}
		return quantity, nil
	default:
		return 0, fmt.Errorf("get cart entry: %w", err)
	}
}

// SetQuantity overwrites the quantity of an existing entry.
// docstore.ErrNotFound when the product is not in the cart.
func (s *Store) SetQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	if quantity < 1 {
		return ErrBadQuantity
	}
	return s.docs.Update(ctx, Collection(customerID), productID, map[string]any{"quantity": quantity})
}

// Remove deletes one entry from the cart.
func (s *Store) Remove(ctx context.Context, customerID, productID string) error {
	return s.docs.Delete(ctx, Collection(customerID), productID)
}

// List returns every entry in the customer's cart.
func (s *Store) List(ctx context.Context, customerID string) ([]Entry, error) {
	var entries []Entry
	if err := s.docs.Query(ctx, Collection(customerID), &entries); err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return entries, nil
}
