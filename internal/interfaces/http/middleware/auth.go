// Package middleware holds the gin middleware chain: authentication,
// request logging, and metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/infrastructure/auth"
)

const (
	// ContextOwnerID is the gin context key holding the caller's UUID.
	ContextOwnerID = "owner_id"
	// ContextUsername is the gin context key holding the caller's username.
	ContextUsername = "username"
)

// Auth validates the bearer token and stores the owner identity on the
// request context.  Missing or invalid tokens end the request with 401.
func Auth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		ownerID, claims, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextOwnerID, ownerID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// OwnerID extracts the authenticated caller's UUID from the context.
// Returns uuid.Nil when the auth middleware did not run.
func OwnerID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextOwnerID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
