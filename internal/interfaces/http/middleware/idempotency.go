package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/propman/backend/internal/domain/shared"
	"github.com/propman/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client-chosen key for mutating
// requests that must not be applied twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// DefaultIdempotencyTTL bounds how long a processed key is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

// Idempotency rejects repeated requests carrying the same
// Idempotency-Key header. Requests without the header pass through
// unchanged. When the store is unavailable the request is allowed so
// an idempotency outage never blocks inspections.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		first, err := store.MarkProcessed(c.Request.Context(), key, ttl)
		if err != nil {
			logger.Warn("idempotency store unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}
		if !first {
			requestID := c.GetString(RequestIDKey)
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeConflict,
					"request with this idempotency key was already processed", requestID))
			return
		}
		c.Next()
	}
}
