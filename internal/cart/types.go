package cart

import (
	"time"

	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

// Entry is one cart line, keyed by product id within the customer's cart
// sub-collection. Version is the store-managed per-write revision; the
// checkout commit asserts it when clearing the cart so a cart mutated after
// aggregation fails the commit instead of being silently consumed.
type Entry struct {
	ProductID string    `dynamodbav:"id"`
	SellerID  string    `dynamodbav:"seller_id"`
	Quantity  int       `dynamodbav:"quantity"`
	Version   int64     `dynamodbav:"doc_version"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

// Collection returns the customer-scoped cart collection path:
// customers/{id}/cart.
func Collection(customerID string) string {
	return docstore.CollectionJoin("customers", customerID, "cart")
}

// EntryRef returns the reference to one cart entry.
func EntryRef(customerID, productID string) docstore.Ref {
	return docstore.NewRef(Collection(customerID), productID)
}

// CustomerRef returns the reference to a customer document.
func CustomerRef(customerID string) docstore.Ref {
	return docstore.NewRef("customers", customerID)
}
