package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bazaarhq/storefront-orders/internal/aws"
	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/catalog"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/identity"
	"github.com/bazaarhq/storefront-orders/internal/metrics"
	"github.com/bazaarhq/storefront-orders/internal/orders"
)

type ordersHandler struct {
	store     *orders.Store
	views     *orders.Views
	publisher *aws.Publisher
	metrics   *metrics.Emitter
}

// myOrders handles GET /orders for the authenticated customer.
func (h *ordersHandler) myOrders(c *gin.Context) {
	principal := principalFrom(c)

	result, err := h.views.MyOrders(c.Request.Context(), principal.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	out := make([]gin.H, 0, len(result))
	for _, o := range result {
		out = append(out, orderJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// ordersReceived handles GET /seller/orders: every order containing the
// seller's lines, items scoped to that seller.
func (h *ordersHandler) ordersReceived(c *gin.Context) {
	principal := principalFrom(c)

	result, err := h.views.OrdersReceived(c.Request.Context(), principal.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	out := make([]gin.H, 0, len(result))
	for _, ro := range result {
		entry := orderJSON(ro.Order)
		entry["items"] = itemsJSON(ro.Items)
		entry["seller_subtotal"] = ro.SellerSubtotal
		delete(entry, "subtotal")
		delete(entry, "total")
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// get handles GET /orders/:id for the owning customer or a participating
// seller. Anyone else sees 404, not 403, so order ids stay unguessable.
func (h *ordersHandler) get(c *gin.Context) {
	principal := principalFrom(c)

	o, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	switch principal.Role {
	case identity.RoleCustomer:
		if o.CustomerRef != cart.CustomerRef(principal.ID).Path() {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
	case identity.RoleSeller:
		if !containsRef(o.SellerRefs, catalog.SellerRef(principal.ID).Path()) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
	}

	entry := orderJSON(*o)
	entry["items"] = itemsJSON(o.Items)
	entry["shipping_details"] = gin.H{
		"name":    o.ShippingDetails.Name,
		"address": o.ShippingDetails.Address,
		"city":    o.ShippingDetails.City,
		"phone":   o.ShippingDetails.Phone,
	}
	c.JSON(http.StatusOK, entry)
}

// cancel handles POST /orders/:id/cancel (customer-driven;
// confirmed|shipped -> cancelled).
func (h *ordersHandler) cancel(c *gin.Context) {
	h.transition(c, orders.StatusCancelled, func(o *orders.Order, p identity.Principal) bool {
		return o.CustomerRef == cart.CustomerRef(p.ID).Path()
	})
}

// ship handles POST /seller/orders/:id/ship (seller-driven).
func (h *ordersHandler) ship(c *gin.Context) {
	h.transition(c, orders.StatusShipped, sellerParticipates)
}

// deliver handles POST /seller/orders/:id/deliver (seller-driven).
func (h *ordersHandler) deliver(c *gin.Context) {
	h.transition(c, orders.StatusDelivered, sellerParticipates)
}

func sellerParticipates(o *orders.Order, p identity.Principal) bool {
	return containsRef(o.SellerRefs, catalog.SellerRef(p.ID).Path())
}

func (h *ordersHandler) transition(c *gin.Context, target orders.Status, authorized func(*orders.Order, identity.Principal) bool) {
	ctx := c.Request.Context()
	principal := principalFrom(c)
	orderID := c.Param("id")

	current, err := h.store.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	if !authorized(current, principal) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		return
	}

	updated, err := h.store.Transition(ctx, orderID, target)
	switch {
	case err == nil:
	case errors.Is(err, orders.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition", "msg": err.Error()})
		return
	case errors.Is(err, orders.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "status_conflict"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transition_failed"})
		return
	}

	h.metrics.CountStatusTransition(ctx, string(target))
	h.publishStatusChanged(c, updated)

	c.JSON(http.StatusOK, gin.H{"order_id": updated.ID, "status": updated.Status})
}

func (h *ordersHandler) publishStatusChanged(c *gin.Context, o *orders.Order) {
	if h.publisher == nil {
		return
	}
	ctx := c.Request.Context()
	ev := aws.OrderEvent{
		Type:       aws.EventOrderStatusChanged,
		OrderID:    o.ID,
		Status:     string(o.Status),
		SellerIDs:  sellerIDs(o.SellerRefs),
		OccurredAt: time.Now().UTC(),
	}
	if err := h.publisher.PublishOrderEvent(ctx, ev, requestID(c)); err != nil {
		slog.WarnContext(ctx, "order event publish failed", "order_id", o.ID, "error", err)
	}
}

func orderJSON(o orders.Order) gin.H {
	return gin.H{
		"order_id":       o.ID,
		"status":         o.Status,
		"payment_method": o.PaymentMethod,
		"subtotal":       o.Subtotal,
		"shipping":       o.Shipping,
		"total":          o.Total,
		"created_at":     o.CreatedAt,
	}
}

func itemsJSON(items []orders.Item) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, gin.H{
			"product_ref": item.ProductRef,
			"seller_ref":  item.SellerRef,
			"quantity":    item.Quantity,
			"unit_price":  item.UnitPrice,
		})
	}
	return out
}

func containsRef(refs []string, path string) bool {
	for _, r := range refs {
		if r == path {
			return true
		}
	}
	return false
}

func sellerIDs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if ref, err := docstore.ParseRef(r); err == nil {
			out = append(out, ref.ID)
		}
	}
	return out
}
