package orders

import (
	"context"
	"fmt"
	"sort"

	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/catalog"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

// ReceivedOrder is a seller's view of one order: the embedded items are
// filtered down to the requesting seller's lines and SellerSubtotal is
// computed solely from those lines. Another seller's items and value never
// leak into this view.
type ReceivedOrder struct {
	Order          Order
	Items          []Item
	SellerSubtotal int64
}

// Views are the two read paths over the order collection. Neither mutates
// state; both return an empty slice for an empty history.
type Views struct {
	docs docstore.Store
}

// NewViews creates order query Views.
func NewViews(docs docstore.Store) *Views {
	return &Views{docs: docs}
}

// MyOrders returns the customer's orders, most recent first.
func (v *Views) MyOrders(ctx context.Context, customerID string) ([]Order, error) {
	var result []Order
	err := v.docs.Query(ctx, Collection, &result,
		docstore.Eq("customer_ref", cart.CustomerRef(customerID).Path()))
	if err != nil {
		return nil, fmt.Errorf("query customer orders: %w", err)
	}
	sortByRecency(result)
	return result, nil
}

// OrdersReceived returns every order containing at least one of the seller's
// lines, most recent first, with items scoped to that seller.
func (v *Views) OrdersReceived(ctx context.Context, sellerID string) ([]ReceivedOrder, error) {
	sellerPath := catalog.SellerRef(sellerID).Path()

	var matched []Order
	err := v.docs.Query(ctx, Collection, &matched,
		docstore.ArrayContains("seller_refs", sellerPath))
	if err != nil {
		return nil, fmt.Errorf("query seller orders: %w", err)
	}
	sortByRecency(matched)

	result := make([]ReceivedOrder, 0, len(matched))
	for _, o := range matched {
		var items []Item
		var subtotal int64
		for _, item := range o.Items {
			if item.SellerRef != sellerPath {
				continue
			}
			items = append(items, item)
			subtotal += item.UnitPrice * int64(item.Quantity)
		}
		result = append(result, ReceivedOrder{Order: o, Items: items, SellerSubtotal: subtotal})
	}
	return result, nil
}

func sortByRecency(os []Order) {
	sort.SliceStable(os, func(i, j int) bool {
		if os[i].CreatedAt.Equal(os[j].CreatedAt) {
			return os[i].ID > os[j].ID
		}
		return os[i].CreatedAt.After(os[j].CreatedAt)
	})
}
