package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bazaarhq/storefront-orders/internal/aws"
	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/catalog"
	"github.com/bazaarhq/storefront-orders/internal/checkout"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/identity"
	"github.com/bazaarhq/storefront-orders/internal/metrics"
	"github.com/bazaarhq/storefront-orders/internal/orders"
	"github.com/bazaarhq/storefront-orders/internal/validation"
)

// HandlerConfig groups the dependencies of the HTTP surface. Everything is
// injected; there is no process-wide state.
type HandlerConfig struct {
	Docs         docstore.Store
	Identity     identity.Provider
	Publisher    *aws.Publisher   // optional; nil disables order events
	Metrics      *metrics.Emitter // optional; nil disables metrics
	ShippingRate int64            // flat shipping charge in minor units
	ReceiptTTL   time.Duration    // how long duplicate-checkout detection lasts
}

// Register wires every route onto the engine.
func Register(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	carts := cart.NewStore(cfg.Docs)
	products := catalog.NewStore(cfg.Docs)
	orderStore := orders.NewStore(cfg.Docs)
	views := orders.NewViews(cfg.Docs)

	co := &checkoutHandler{
		aggregator: checkout.NewAggregator(carts, products, cfg.ShippingRate),
		committer:  checkout.NewCommitter(cfg.Docs, carts, cfg.ReceiptTTL),
		publisher:  cfg.Publisher,
		metrics:    cfg.Metrics,
		validate:   v,
	}
	ch := &cartHandler{carts: carts, validate: v}
	oh := &ordersHandler{
		store:     orderStore,
		views:     views,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
	}
	ph := &catalogHandler{products: products, validate: v}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/products/:sellerId/:productId", ph.get)

	authed := r.Group("/", authMiddleware(cfg.Identity))

	customer := authed.Group("/", requireRole(identity.RoleCustomer))
	customer.POST("/checkout", co.checkout)
	customer.GET("/cart", ch.list)
	customer.POST("/cart/items", ch.add)
	customer.PUT("/cart/items/:productId", ch.setQuantity)
	customer.DELETE("/cart/items/:productId", ch.remove)
	customer.GET("/orders", oh.myOrders)
	customer.POST("/orders/:id/cancel", oh.cancel)

	seller := authed.Group("/seller", requireRole(identity.RoleSeller))
	seller.GET("/orders", oh.ordersReceived)
	seller.POST("/orders/:id/ship", oh.ship)
	seller.POST("/orders/:id/deliver", oh.deliver)
	seller.POST("/products", ph.publish)
	seller.GET("/products", ph.listOwn)
	seller.PUT("/products/:productId", ph.update)
	seller.DELETE("/products/:productId", ph.unpublish)

	// Order detail is readable by the owning customer and by any seller
	// with a line in the order.
	authed.GET("/orders/:id", oh.get)
}
