package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propman/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodySize is the request body limit applied when the
// configuration does not specify one.
const DefaultMaxBodySize = 1 << 20 // 1 MiB

// BodyLimit rejects requests whose body exceeds maxSize bytes.
// Requests with a Content-Length over the limit are rejected outright;
// chunked bodies are capped with http.MaxBytesReader.
func BodyLimit(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
