package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/validation"
)

type cartHandler struct {
	carts    *cart.Store
	validate *validator.Validate
}

// list handles GET /cart.
func (h *cartHandler) list(c *gin.Context) {
	principal := principalFrom(c)

	entries, err := h.carts.List(c.Request.Context(), principal.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"product_id": e.ProductID,
			"seller_id":  e.SellerID,
			"quantity":   e.Quantity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// add handles POST /cart/items. Repeating a product id accumulates quantity
// instead of creating a second entry.
func (h *cartHandler) add(c *gin.Context) {
	principal := principalFrom(c)

	var req validation.AddToCartRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	quantity, err := h.carts.Add(c.Request.Context(), principal.ID, req.ProductID, req.SellerID, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrBadQuantity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_quantity"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_update_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": req.ProductID, "quantity": quantity})
}

// setQuantity handles PUT /cart/items/:productId.
func (h *cartHandler) setQuantity(c *gin.Context) {
	principal := principalFrom(c)
	productID := c.Param("productId")

	var req validation.SetQuantityRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	err := h.carts.SetQuantity(c.Request.Context(), principal.ID, productID, req.Quantity)
	switch {
	case err == nil:
	case errors.Is(err, cart.ErrBadQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_quantity"})
		return
	case errors.Is(err, docstore.ErrConditionFailed), errors.Is(err, docstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "cart_entry_not_found"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_update_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": productID, "quantity": req.Quantity})
}

// remove handles DELETE /cart/items/:productId. Removing an absent entry is
// a no-op success.
func (h *cartHandler) remove(c *gin.Context) {
	principal := principalFrom(c)
	productID := c.Param("productId")

	if err := h.carts.Remove(c.Request.Context(), principal.ID, productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart_update_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
