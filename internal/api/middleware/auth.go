package middleware

import (
	"net/http"
	"strings"

	"github.com/devstudio/devstudio-server/internal/auth"
	"github.com/gin-gonic/gin"
)

// claimsKey is the gin context key the authenticated claims live under
const claimsKey = "admin_claims"

// RequireAuth extracts and verifies the bearer token from the
// Authorization header. A missing or malformed header fails with 401
// before anything touches the store. On success the decoded claims are
// attached to the request context.
func RequireAuth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized",
			})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole enforces that the authenticated claims carry exactly the
// given role. There is no role hierarchy: "admin" does not satisfy a
// "superadmin" requirement. Must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Forbidden: insufficient role",
			})
			return
		}

		c.Next()
	}
}

// GetClaims returns the authenticated claims attached by RequireAuth,
// or nil for an unauthenticated request
func GetClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// OptionalAuth attaches claims when a valid bearer token is present but
// lets the request through either way. Used by endpoints that decide
// between an authenticated and an unauthenticated path themselves.
func OptionalAuth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}
