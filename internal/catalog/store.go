package catalog

import (
	"context"
	"fmt"

	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

// Store encapsulates operations on a seller's published products.
type Store struct {
	docs docstore.Store
}

// NewStore creates a catalog Store.
func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Publish inserts a new product under the seller's published collection and
// returns the assigned product id.
func (s *Store) Publish(ctx context.Context, p Product) (string, error) {
	id, _, err := s.docs.Insert(ctx, Collection(p.SellerID), p)
	if err != nil {
		return "", fmt.Errorf("publish product: %w", err)
	}
	return id, nil
}

// Get fetches one published product. docstore.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, sellerID, productID string) (*Product, error) {
	var p Product
	if err := s.docs.Get(ctx, Collection(sellerID), productID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies a partial update to a published product.
func (s *Store) Update(ctx context.Context, sellerID, productID string, fields map[string]any) error {
	return s.docs.Update(ctx, Collection(sellerID), productID, fields)
}

// Unpublish removes a product from the seller's published collection.
// Existing orders keep their references; resolution of those lines will fail
// afterwards, which the aggregator treats as a dropped line.
func (s *Store) Unpublish(ctx context.Context, sellerID, productID string) error {
	return s.docs.Delete(ctx, Collection(sellerID), productID)
}

// ListBySeller returns every product the seller has published.
func (s *Store) ListBySeller(ctx context.Context, sellerID string) ([]Product, error) {
	var products []Product
	if err := s.docs.Query(ctx, Collection(sellerID), &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
