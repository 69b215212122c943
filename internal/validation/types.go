package validation

// ShippingDetails is the checkout address block. Every field is required
// free text; validation is the minimum bar, not address verification.
type ShippingDetails struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
}

// CheckoutRequest is the payload for POST /checkout.
// ExpectedTotal is the total the client displayed to the user; when set, the
// server rejects the checkout if the live cart no longer adds up to it.
type CheckoutRequest struct {
	Shipping      ShippingDetails `json:"shipping" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cashOnDelivery creditCard"`
	ExpectedTotal int64           `json:"expected_total,omitempty" validate:"omitempty,gt=0"`
}

// AddToCartRequest is the payload for POST /cart/items.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	SellerID  string `json:"seller_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// SetQuantityRequest is the payload for PUT /cart/items/:productId.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// PublishProductRequest is the payload for POST /seller/products and
// PUT /seller/products/:id. Price is in minor currency units.
type PublishProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Price       int64    `json:"price" validate:"gte=0"`
	Images      []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	Description string   `json:"description,omitempty"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Available   bool     `json:"available"`
}
