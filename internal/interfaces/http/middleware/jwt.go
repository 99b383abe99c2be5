package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/propman/backend/internal/infrastructure/auth"
	"github.com/propman/backend/internal/interfaces/http/dto"
)

// Context keys set by the JWT middleware.
const (
	ContextKeyJWTClaims = "jwt_claims"
	ContextKeyUserID    = "jwt_user_id"
	ContextKeyRole      = "jwt_role"
)

// JWTConfig configures the JWT authentication middleware.
type JWTConfig struct {
	Service *auth.JWTService
	// SkipPaths are exact paths that bypass authentication.
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that bypass authentication.
	SkipPathPrefixes []string
}

// JWT returns a middleware that validates Bearer tokens and places the
// claims on the request context.
func JWT(cfg JWTConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "authorization header must be a Bearer token")
			return
		}

		claims, err := cfg.Service.ValidateToken(parts[1])
		if err != nil {
			handleAuthError(c, err)
			return
		}

		c.Set(ContextKeyJWTClaims, claims)
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, string(claims.Role))
		c.Next()
	}
}

// RequireManager rejects requests whose token does not carry the
// manager role. It must run after the JWT middleware.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetJWTClaims(c)
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !claims.IsManager() {
			requestID := c.GetString(RequestIDKey)
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "manager role required", requestID))
			return
		}
		c.Next()
	}
}

// GetJWTClaims returns the validated claims set by the JWT middleware.
func GetJWTClaims(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(ContextKeyJWTClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// GetJWTUserID returns the authenticated user ID, or empty string.
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

func handleAuthError(c *gin.Context, err error) {
	msg := "invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		msg = "token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		msg = "token is not valid yet"
	case errors.Is(err, auth.ErrMissingUserID):
		msg = "token is missing the user identity"
	}
	abortUnauthorized(c, msg)
}

func abortUnauthorized(c *gin.Context, message string) {
	requestID := c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, requestID))
}
