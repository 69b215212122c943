package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/identity"
)

type testEnv struct {
	router *gin.Engine
	docs   *docstore.MemoryStore
	auth   *identity.JWTProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	docs := docstore.NewMemoryStore()
	auth := identity.NewJWTProvider("test-secret")

	r := gin.New()
	r.Use(RequestID())
	Register(r, HandlerConfig{
		Docs:         docs,
		Identity:     auth,
		ShippingRate: 300,
		ReceiptTTL:   48 * time.Hour,
	})
	return &testEnv{router: r, docs: docs, auth: auth}
}

func (e *testEnv) token(t *testing.T, id string, role identity.Role) string {
	t.Helper()
	token, err := e.auth.IssueToken(identity.Principal{ID: id, Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *testEnv) publishProduct(t *testing.T, sellerToken string, name string, price int64) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/seller/products", sellerToken, map[string]any{
		"name":      name,
		"price":     price,
		"stock":     10,
		"available": true,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["product_id"].(string)
}

func (e *testEnv) addToCart(t *testing.T, customerToken, productID, sellerID string, quantity int) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/cart/items", customerToken, map[string]any{
		"product_id": productID,
		"seller_id":  sellerID,
		"quantity":   quantity,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func checkoutBody() map[string]any {
	return map[string]any{
		"shipping": map[string]any{
			"name":    "Ada",
			"address": "1 Main St",
			"city":    "Lagos",
			"phone":   "0800000000",
		},
		"payment_method": "cashOnDelivery",
	}
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/cart", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/cart", "garbage-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleSeparation(t *testing.T) {
	e := newTestEnv(t)
	customer := e.token(t, "c1", identity.RoleCustomer)
	seller := e.token(t, "s1", identity.RoleSeller)

	w := e.do(t, http.MethodGet, "/seller/orders", customer, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/cart", seller, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestPublicProductLookup(t *testing.T) {
	e := newTestEnv(t)
	seller := e.token(t, "s1", identity.RoleSeller)
	productID := e.publishProduct(t, seller, "clay mug", 1250)

	w := e.do(t, http.MethodGet, fmt.Sprintf("/products/s1/%s", productID), "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "clay mug", body["name"])
	assert.Equal(t, float64(1250), body["price"])

	w = e.do(t, http.MethodGet, "/products/s1/unknown", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutFlow(t *testing.T) {
	e := newTestEnv(t)
	seller := e.token(t, "s1", identity.RoleSeller)
	customer := e.token(t, "c1", identity.RoleCustomer)

	productID := e.publishProduct(t, seller, "clay mug", 1250)
	e.addToCart(t, customer, productID, "s1", 2)

	w := e.do(t, http.MethodPost, "/checkout", customer, checkoutBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	orderID := body["order_id"].(string)
	assert.Equal(t, "confirmed", body["status"])
	assert.Equal(t, float64(2500), body["subtotal"])
	assert.Equal(t, float64(300), body["shipping"])
	assert.Equal(t, float64(2800), body["total"])
	assert.Equal(t, "/orders/"+orderID, w.Header().Get("Location"))

	// cart was consumed
	w = e.do(t, http.MethodGet, "/cart", customer, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])

	// customer sees the order
	w = e.do(t, http.MethodGet, "/orders", customer, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	myOrders := decode(t, w)["orders"].([]any)
	require.Len(t, myOrders, 1)

	// seller receives it with their subtotal
	w = e.do(t, http.MethodGet, "/seller/orders", seller, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	received := decode(t, w)["orders"].([]any)
	require.Len(t, received, 1)
	assert.Equal(t, float64(2500), received[0].(map[string]any)["seller_subtotal"])

	// an uninvolved seller sees nothing
	other := e.token(t, "s9", identity.RoleSeller)
	w = e.do(t, http.MethodGet, "/seller/orders", other, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["orders"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	e := newTestEnv(t)
	customer := e.token(t, "c1", identity.RoleCustomer)

	w := e.do(t, http.MethodPost, "/checkout", customer, checkoutBody(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutExpectedTotalMismatch(t *testing.T) {
	e := newTestEnv(t)
	seller := e.token(t, "s1", identity.RoleSeller)
	customer := e.token(t, "c1", identity.RoleCustomer)

	productID := e.publishProduct(t, seller, "clay mug", 1250)
	e.addToCart(t, customer, productID, "s1", 1)

	body := checkoutBody()
	body["expected_total"] = 999 // stale client total
	w := e.do(t, http.MethodPost, "/checkout", customer, body, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "cart_changed", resp["error"])
	assert.Equal(t, float64(1550), resp["total"])

	// nothing was committed
	w = e.do(t, http.MethodGet, "/orders", customer, nil, nil)
	assert.Empty(t, decode(t, w)["orders"])
}

func TestCheckoutIdempotencyKeyDeduplicates(t *testing.T) {
	e := newTestEnv(t)
	seller := e.token(t, "s1", identity.RoleSeller)
	customer := e.token(t, "c1", identity.RoleCustomer)

	productID := e.publishProduct(t, seller, "clay mug", 1250)
	e.addToCart(t, customer, productID, "s1", 1)

	key := map[string]string{"Idempotency-Key": "retry-1"}
	w := e.do(t, http.MethodPost, "/checkout", customer, checkoutBody(), key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := decode(t, w)["order_id"].(string)

	// the retry finds the cart consumed; refill it to mirror a client
	// resubmitting the same confirmation screen
	e.addToCart(t, customer, productID, "s1", 1)

	w = e.do(t, http.MethodPost, "/checkout", customer, checkoutBody(), key)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, orderID, resp["order_id"])
	assert.Equal(t, true, resp["duplicate"])
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	seller := e.token(t, "s1", identity.RoleSeller)
	customer := e.token(t, "c1", identity.RoleCustomer)

	productID := e.publishProduct(t, seller, "clay mug", 1250)
	e.addToCart(t, customer, productID, "s1", 1)

	w := e.do(t, http.MethodPost, "/checkout", customer, checkoutBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode(t, w)["order_id"].(string)

	// both parties can read the order detail
	w = e.do(t, http.MethodGet, "/orders/"+orderID, customer, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/orders/"+orderID, seller, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// strangers get a 404, not a 403
	stranger := e.token(t, "c9", identity.RoleCustomer)
	w = e.do(t, http.MethodGet, "/orders/"+orderID, stranger, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// ship, then deliver
	w = e.do(t, http.MethodPost, "/seller/orders/"+orderID+"/ship", seller, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "shipped", decode(t, w)["status"])

	w = e.do(t, http.MethodPost, "/seller/orders/"+orderID+"/deliver", seller, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// delivered is terminal: the customer can no longer cancel
	w = e.do(t, http.MethodPost, "/orders/"+orderID+"/cancel", customer, nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelByCustomer(t *testing.T) {
	e := newTestEnv(t)
	seller := e.token(t, "s1", identity.RoleSeller)
	customer := e.token(t, "c1", identity.RoleCustomer)

	productID := e.publishProduct(t, seller, "clay mug", 1250)
	e.addToCart(t, customer, productID, "s1", 1)

	w := e.do(t, http.MethodPost, "/checkout", customer, checkoutBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode(t, w)["order_id"].(string)

	// another customer cannot cancel it
	stranger := e.token(t, "c9", identity.RoleCustomer)
	w = e.do(t, http.MethodPost, "/orders/"+orderID+"/cancel", stranger, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/orders/"+orderID+"/cancel", customer, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode(t, w)["status"])

	// a cancelled order cannot be shipped
	w = e.do(t, http.MethodPost, "/seller/orders/"+orderID+"/ship", seller, nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCartEndpoints(t *testing.T) {
	e := newTestEnv(t)
	customer := e.token(t, "c1", identity.RoleCustomer)

	e.addToCart(t, customer, "p1", "s1", 2)
	e.addToCart(t, customer, "p1", "s1", 1) // accumulates

	w := e.do(t, http.MethodGet, "/cart", customer, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(3), items[0].(map[string]any)["quantity"])

	w = e.do(t, http.MethodPut, "/cart/items/p1", customer, map[string]any{"quantity": 7}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPut, "/cart/items/ghost", customer, map[string]any{"quantity": 2}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPut, "/cart/items/p1", customer, map[string]any{"quantity": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodDelete, "/cart/items/p1", customer, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSellerCatalogEndpoints(t *testing.T) {
	e := newTestEnv(t)
	seller := e.token(t, "s1", identity.RoleSeller)

	productID := e.publishProduct(t, seller, "clay mug", 1250)

	w := e.do(t, http.MethodGet, "/seller/products", seller, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"].([]any), 1)

	w = e.do(t, http.MethodPut, "/seller/products/"+productID, seller, map[string]any{
		"name":      "clay mug v2",
		"price":     1400,
		"stock":     3,
		"available": true,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, fmt.Sprintf("/products/s1/%s", productID), "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "clay mug v2", decode(t, w)["name"])

	// available with zero stock is rejected
	w = e.do(t, http.MethodPost, "/seller/products", seller, map[string]any{
		"name":      "phantom",
		"price":     100,
		"stock":     0,
		"available": true,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodDelete, "/seller/products/"+productID, seller, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, fmt.Sprintf("/products/s1/%s", productID), "", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutDropsUnavailableLines(t *testing.T) {
	e := newTestEnv(t)
	seller := e.token(t, "s1", identity.RoleSeller)
	customer := e.token(t, "c1", identity.RoleCustomer)

	kept := e.publishProduct(t, seller, "kept", 1000)
	dropped := e.publishProduct(t, seller, "dropped", 500)

	e.addToCart(t, customer, kept, "s1", 1)
	e.addToCart(t, customer, dropped, "s1", 1)

	// seller pulls the second product before checkout
	w := e.do(t, http.MethodDelete, "/seller/products/"+dropped, seller, nil, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodPost, "/checkout", customer, checkoutBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(1000), body["subtotal"])
	droppedIDs := body["dropped"].([]any)
	require.Len(t, droppedIDs, 1)
	assert.Equal(t, dropped, droppedIDs[0])
}
