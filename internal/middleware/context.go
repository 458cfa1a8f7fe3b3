package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextClientIP is the context key for the resolved client IP
	ContextClientIP = "client_ip"
	// ContextRequestID is the context key for the per-request correlation id
	ContextRequestID = "request_id"

	// HeaderRequestID carries the correlation id back to the caller
	HeaderRequestID = "X-Request-ID"
)

// RequestContextMiddleware resolves the client IP and assigns each request a
// correlation id. Incoming X-Request-ID values are trusted so a frontend can
// stitch its own traces to ours.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextClientIP, c.ClientIP())

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}

// ClientIP returns the IP resolved by RequestContextMiddleware, falling back
// to gin's own resolution when the middleware did not run.
func ClientIP(c *gin.Context) string {
	if ip, ok := c.Get(ContextClientIP); ok {
		if s, ok := ip.(string); ok {
			return s
		}
	}
	return c.ClientIP()
}

// RequestID returns the correlation id for the current request.
func RequestID(c *gin.Context) string {
	if id, ok := c.Get(ContextRequestID); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
