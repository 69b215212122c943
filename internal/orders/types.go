package orders

import "time"

// Collection is the flat order collection path.
const Collection = "orders"

// PaymentMethod selects how the customer pays.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cashOnDelivery"
	PaymentCreditCard     PaymentMethod = "creditCard"
)

// Valid reports whether the payment method is one of the accepted values.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCreditCard
}

// ShippingDetails is the address snapshot embedded in an order at commit
// time. It is a copy, not a reference: later profile edits never alter
// historical orders.
type ShippingDetails struct {
	Name    string `dynamodbav:"name"`
	Address string `dynamodbav:"address"`
	City    string `dynamodbav:"city"`
	Phone   string `dynamodbav:"phone"`
}

// Item is one order line. References are persisted as path strings
// ("collection/id"), so path equality is reference equality. UnitPrice is a
// snapshot of the product price at commit time; the product document may
// change or disappear afterwards without altering the order's value.
type Item struct {
	ProductRef string `dynamodbav:"product_ref"`
	Quantity   int    `dynamodbav:"quantity"`
	SellerRef  string `dynamodbav:"seller_ref"`
	UnitPrice  int64  `dynamodbav:"unit_price"`
}

// Order is the committed order record. Items, shipping details and totals
// are immutable after commit; only Status transitions afterwards.
type Order struct {
	ID              string          `dynamodbav:"id"`
	CustomerRef     string          `dynamodbav:"customer_ref"`
	Status          Status          `dynamodbav:"status"`
	Items           []Item          `dynamodbav:"order_items"`
	SellerRefs      []string        `dynamodbav:"seller_refs"`
	ShippingDetails ShippingDetails `dynamodbav:"shipping_details"`
	PaymentMethod   PaymentMethod   `dynamodbav:"payment_method"`
	Subtotal        int64           `dynamodbav:"subtotal"`
	Shipping        int64           `dynamodbav:"shipping"`
	Total           int64           `dynamodbav:"total"`
	CreatedAt       time.Time       `dynamodbav:"created_at"`
}
