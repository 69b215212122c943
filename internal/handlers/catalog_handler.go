package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bazaarhq/storefront-orders/internal/catalog"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/validation"
)

type catalogHandler struct {
	products *catalog.Store
	validate *validator.Validate
}

// publish handles POST /seller/products. The product lands under the
// authenticated seller regardless of what the payload claims.
func (h *catalogHandler) publish(c *gin.Context) {
	principal := principalFrom(c)

	var req validation.PublishProductRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	id, err := h.products.Publish(c.Request.Context(), catalog.Product{
		SellerID:    principal.ID,
		Name:        req.Name,
		Price:       req.Price,
		Images:      req.Images,
		Description: req.Description,
		Stock:       req.Stock,
		Available:   req.Available,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "publish_failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product_id": id, "seller_id": principal.ID})
}

// get handles GET /products/:sellerId/:productId, the one public route.
func (h *catalogHandler) get(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("sellerId"), c.Param("productId"))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}
	c.JSON(http.StatusOK, productJSON(*p))
}

// listOwn handles GET /seller/products.
func (h *catalogHandler) listOwn(c *gin.Context) {
	principal := principalFrom(c)

	products, err := h.products.ListBySeller(c.Request.Context(), principal.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

// update handles PUT /seller/products/:productId as a full replacement of the
// mutable fields.
func (h *catalogHandler) update(c *gin.Context) {
	principal := principalFrom(c)
	productID := c.Param("productId")

	var req validation.PublishProductRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	fields := map[string]any{
		"name":        req.Name,
		"price":       req.Price,
		"images":      req.Images,
		"description": req.Description,
		"stock":       req.Stock,
		"available":   req.Available,
	}
	err := h.products.Update(c.Request.Context(), principal.ID, productID, fields)
	switch {
	case err == nil:
	case errors.Is(err, docstore.ErrConditionFailed), errors.Is(err, docstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": productID})
}

// unpublish handles DELETE /seller/products/:productId.
func (h *catalogHandler) unpublish(c *gin.Context) {
	principal := principalFrom(c)

	if err := h.products.Unpublish(c.Request.Context(), principal.ID, c.Param("productId")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func productJSON(p catalog.Product) gin.H {
	return gin.H{
		"product_id":  p.ID,
		"seller_id":   p.SellerID,
		"name":        p.Name,
		"price":       p.Price,
		"images":      p.Images,
		"description": p.Description,
		"stock":       p.Stock,
		"available":   p.Available,
		"created_at":  p.CreatedAt,
	}
}
