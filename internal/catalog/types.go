package catalog

import (
	"time"

	"github.com/bazaarhq/storefront-orders/internal/docstore"
)

// Product is a seller's published listing. Prices are in minor currency
// units. The order core only reads products; lifecycle belongs to the
// seller-facing endpoints in this package.
type Product struct {
	ID          string    `dynamodbav:"id"`
	SellerID    string    `dynamodbav:"seller_id"`
	Name        string    `dynamodbav:"name"`
	Price       int64     `dynamodbav:"price"`
	Images      []string  `dynamodbav:"images,omitempty"`
	Description string    `dynamodbav:"description,omitempty"`
	Stock       int       `dynamodbav:"stock"`
	Available   bool      `dynamodbav:"available"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
}

// Collection returns the seller-scoped published-products collection path:
// products/{sellerId}/published_products.
func Collection(sellerID string) string {
	return docstore.CollectionJoin("products", sellerID, "published_products")
}

// ProductRef returns the reference to a published product.
func ProductRef(sellerID, productID string) docstore.Ref {
	return docstore.NewRef(Collection(sellerID), productID)
}

// SellerRef returns the reference to a seller document.
func SellerRef(sellerID string) docstore.Ref {
	return docstore.NewRef("seller", sellerID)
}
