package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
	"github.com/jcorriveau23/backend-pool-nhl/pkg/utils"
)

// bearerToken extracts the token from a "Bearer <token>" Authorization
// header, returning ok=false if the header is absent or malformed.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", false
	}
	return token, true
}

// AuthRequired validates the bearer token against validator and rejects the
// request with 401 on failure, matching spec.md §6 ("expired tokens →
// 401-equivalent"). On success it stores the resolved user id and claims on
// the gin context under "user_id" and "claims".
func AuthRequired(validator draft.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.SendUnauthorized(c, "Authorization header required")
			c.Abort()
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			utils.SendUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("claims", claims)
		c.Next()
	}
}

// OptionalAuth resolves the bearer token if present but never aborts the
// request when it is missing or invalid — handlers fall back to
// unauthenticated behavior.
func OptionalAuth(validator draft.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			c.Next()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("claims", claims)
		c.Next()
	}
}

// UserID reads the authenticated user id stored by AuthRequired/OptionalAuth.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
