package checkout

import (
	"fmt"

	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/orders"
)

// Compose turns a resolved cart plus shipping details and payment method
// into a well-formed order payload. Pure: no I/O, no side effects. The store
// assigns id and creation timestamp at commit.
//
// ErrValidation when a required shipping field is empty, the payment method
// is unknown, or the cart has no lines. ErrIntegrity when a line lacks a
// resolvable seller reference. In either case no write is attempted.
func Compose(resolved *ResolvedCart, shipping orders.ShippingDetails, payment orders.PaymentMethod) (orders.Order, error) {
	var zero orders.Order

	for field, value := range map[string]string{
		"name":    shipping.Name,
		"address": shipping.Address,
		"city":    shipping.City,
		"phone":   shipping.Phone,
	} {
		if value == "" {
			return zero, fmt.Errorf("%w: shipping %s is required", ErrValidation, field)
		}
	}
	if !payment.Valid() {
		return zero, fmt.Errorf("%w: unknown payment method %q", ErrValidation, payment)
	}
	if len(resolved.Lines) == 0 {
		return zero, fmt.Errorf("%w: cart has no resolvable lines", ErrValidation)
	}

	items := make([]orders.Item, 0, len(resolved.Lines))
	var sellerRefs []string
	seen := map[string]bool{}
	var subtotal int64

	for _, line := range resolved.Lines {
		if line.SellerRef.IsZero() {
			return zero, fmt.Errorf("%w: line %s has no seller reference", ErrIntegrity, line.ProductRef.ID)
		}
		if line.Quantity < 1 {
			return zero, fmt.Errorf("%w: line %s has quantity %d", ErrIntegrity, line.ProductRef.ID, line.Quantity)
		}

		sellerPath := line.SellerRef.Path()
		items = append(items, orders.Item{
			ProductRef: line.ProductRef.Path(),
			Quantity:   line.Quantity,
			SellerRef:  sellerPath,
			UnitPrice:  line.Product.Price,
		})
		if !seen[sellerPath] {
			seen[sellerPath] = true
			sellerRefs = append(sellerRefs, sellerPath)
		}
		subtotal += line.Product.Price * int64(line.Quantity)
	}

	return orders.Order{
		CustomerRef:     cart.CustomerRef(resolved.CustomerID).Path(),
		Status:          orders.StatusConfirmed,
		Items:           items,
		SellerRefs:      sellerRefs,
		ShippingDetails: shipping,
		PaymentMethod:   payment,
		Subtotal:        subtotal,
		Shipping:        resolved.Shipping,
		Total:           subtotal + resolved.Shipping,
	}, nil
}
