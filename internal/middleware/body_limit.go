package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes caps photo submissions at 10MB.
const DefaultMaxBodyBytes = 10 << 20

// BodyLimitMiddleware rejects request bodies larger than maxBytes.
// Oversized reads surface as a 400 from the JSON binding layer.
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
