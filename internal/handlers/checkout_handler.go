package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/bazaarhq/storefront-orders/internal/aws"
	"github.com/bazaarhq/storefront-orders/internal/checkout"
	"github.com/bazaarhq/storefront-orders/internal/metrics"
	"github.com/bazaarhq/storefront-orders/internal/orders"
	"github.com/bazaarhq/storefront-orders/internal/validation"
)

type checkoutHandler struct {
	aggregator *checkout.Aggregator
	committer  *checkout.Committer
	publisher  *aws.Publisher
	metrics    *metrics.Emitter
	validate   *validatorv10.Validate
}

// checkout handles POST /checkout: aggregate the live cart, compose the
// order, commit, then publish the order-confirmed event.
func (h *checkoutHandler) checkout(c *gin.Context) {
	ctx := c.Request.Context()
	principal := principalFrom(c)

	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		h.metrics.CountCheckout(ctx, metrics.OutcomeValidationError)
		return
	}

	resolved, err := h.aggregator.Aggregate(ctx, principal.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_aggregation_failed"})
		return
	}

	// The client checked out against the totals it displayed; if the live
	// cart no longer adds up, make it re-confirm instead of charging a
	// different amount.
	if req.ExpectedTotal > 0 && req.ExpectedTotal != resolved.Total {
		h.metrics.CountCheckout(ctx, metrics.OutcomeCartConflict)
		c.JSON(http.StatusConflict, gin.H{
			"error": "cart_changed",
			"total": resolved.Total,
		})
		return
	}

	order, err := checkout.Compose(resolved, orders.ShippingDetails{
		Name:    req.Shipping.Name,
		Address: req.Shipping.Address,
		City:    req.Shipping.City,
		Phone:   req.Shipping.Phone,
	}, orders.PaymentMethod(req.PaymentMethod))
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrValidation):
			h.metrics.CountCheckout(ctx, metrics.OutcomeValidationError)
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": err.Error()})
		case errors.Is(err, checkout.ErrIntegrity):
			h.metrics.CountCheckout(ctx, metrics.OutcomeIntegrityError)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order_data_invalid"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "compose_failed"})
		}
		return
	}

	receiptKey := c.GetHeader("Idempotency-Key")

	orderID, err := h.committer.Commit(ctx, order, resolved, receiptKey)
	switch {
	case err == nil:
		// fall through to success response
	case errors.Is(err, checkout.ErrDuplicateCheckout):
		h.metrics.CountCheckout(ctx, metrics.OutcomeDuplicate)
		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "duplicate": true})
		return
	case errors.Is(err, checkout.ErrCartConflict):
		h.metrics.CountCheckout(ctx, metrics.OutcomeCartConflict)
		c.JSON(http.StatusConflict, gin.H{"error": "cart_conflict"})
		return
	case errors.Is(err, checkout.ErrCartClearFailed):
		// The order is committed; the stale cart is reconciled by the
		// worker. The customer still gets their confirmation.
		slog.WarnContext(ctx, "cart clear failed after commit",
			"order_id", orderID, "customer_id", principal.ID, "error", err)
		h.metrics.CountCheckout(ctx, metrics.OutcomeCartClearFailed)
	case errors.Is(err, checkout.ErrValidation):
		h.metrics.CountCheckout(ctx, metrics.OutcomeValidationError)
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": err.Error()})
		return
	default:
		h.metrics.CountCheckout(ctx, metrics.OutcomeCommitFailed)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "commit_failed"})
		return
	}

	h.metrics.CountCheckout(ctx, metrics.OutcomeCommitted)
	h.publishConfirmed(c, orderID, principal.ID, order)

	c.Header("Location", fmt.Sprintf("/orders/%s", orderID))
	c.JSON(http.StatusCreated, gin.H{
		"order_id": orderID,
		"status":   order.Status,
		"subtotal": order.Subtotal,
		"shipping": order.Shipping,
		"total":    order.Total,
		"dropped":  resolved.Dropped,
	})
}

func (h *checkoutHandler) publishConfirmed(c *gin.Context, orderID, customerID string, order orders.Order) {
	if h.publisher == nil {
		return
	}
	ctx := c.Request.Context()
	ev := aws.OrderEvent{
		Type:       aws.EventOrderConfirmed,
		OrderID:    orderID,
		CustomerID: customerID,
		SellerIDs:  sellerIDs(order.SellerRefs),
		Status:     string(order.Status),
		Total:      order.Total,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.publisher.PublishOrderEvent(ctx, ev, requestID(c)); err != nil {
		// The order is durable; losing the event only delays downstream
		// processing, so the request still succeeds.
		slog.WarnContext(ctx, "order event publish failed", "order_id", orderID, "error", err)
	}
}
