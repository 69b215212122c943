package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/catalog"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/identity"
)

// Aggregator reads a customer's cart and resolves each entry to its
// seller-scoped published product. Read-only.
type Aggregator struct {
	carts        *cart.Store
	products     *catalog.Store
	shippingRate int64 // flat shipping charge in minor units
}

// NewAggregator creates an Aggregator with a flat shipping rate.
func NewAggregator(carts *cart.Store, products *catalog.Store, shippingRate int64) *Aggregator {
	return &Aggregator{carts: carts, products: products, shippingRate: shippingRate}
}

// Aggregate resolves the customer's cart into priced lines and totals.
//
// A line whose product no longer resolves (deleted or unpublished) is
// dropped from the aggregate rather than aborting the whole cart; dropped
// product ids are reported in the result. Store errors other than not-found
// abort.
func (a *Aggregator) Aggregate(ctx context.Context, customerID string) (*ResolvedCart, error) {
	if customerID == "" {
		return nil, identity.ErrUnauthenticated
	}

	entries, err := a.carts.List(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	result := &ResolvedCart{
		CustomerID: customerID,
		Entries:    entries,
		Shipping:   a.shippingRate,
	}

	for _, entry := range entries {
		product, err := a.products.Get(ctx, entry.SellerID, entry.ProductID)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			result.Dropped = append(result.Dropped, entry.ProductID)
			continue
		case err != nil:
			return nil, fmt.Errorf("resolve product %s: %w", entry.ProductID, err)
		}
		if !product.Available {
			result.Dropped = append(result.Dropped, entry.ProductID)
			continue
		}

		line := ResolvedLine{
			Product:      *product,
			ProductRef:   catalog.ProductRef(entry.SellerID, entry.ProductID),
			Quantity:     entry.Quantity,
			EntryVersion: entry.Version,
		}
		if entry.SellerID != "" {
			line.SellerRef = catalog.SellerRef(entry.SellerID)
		}

		result.Lines = append(result.Lines, line)
		result.Subtotal += product.Price * int64(entry.Quantity)
	}

	result.Total = result.Subtotal + result.Shipping
	return result, nil
}
