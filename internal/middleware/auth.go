package middleware

import (
	"net/http"
	"strings"

	"github.com/tainyuhu/pin-server/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireAuth rejects requests without a valid access token and stores the
// caller's identity on the request context.
func RequireAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "auth_required",
				"message": "missing bearer token",
			})
			c.Abort()
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "auth_required",
				"message": "invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth stores the caller's identity when a valid token is present
// and lets the request through either way. The login-URL endpoint uses this:
// login mode is anonymous, binding mode checks for the identity itself.
func OptionalAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := tokens.Validate(token); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextUsername, claims.Username)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

// CallerID returns the authenticated caller's user id, if any.
func CallerID(c *gin.Context) string {
	id, _ := c.Get(ContextUserID)
	s, _ := id.(string)
	return s
}

// CallerRole returns the authenticated caller's role, if any.
func CallerRole(c *gin.Context) string {
	role, _ := c.Get(ContextRole)
	s, _ := role.(string)
	return s
}
