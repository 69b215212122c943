package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazaarhq/storefront-orders/internal/identity"
)

const principalContextKey = "principal"

// RequestID ensures every request carries an X-Request-Id, generating one
// when the client did not send it. The id is echoed on the response and
// attached to order events as the correlation id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// authMiddleware resolves the principal from the Authorization header.
// Requests without a valid credential never reach a handler.
func authMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		principal, err := provider.Authenticate(c.Request.Context(), credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		c.Set(principalContextKey, principal)
		c.Next()
	}
}

func requireRole(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if principalFrom(c).Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) identity.Principal {
	p, _ := c.Get(principalContextKey)
	principal, _ := p.(identity.Principal)
	return principal
}
