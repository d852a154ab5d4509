package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/pkg/response"
)

const (
	UserIDKey      = "user_id"
	EmailKey       = "email"
	DisplayNameKey = "display_name"
	TokenIDKey     = "token_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// TokenValidator is satisfied by *jwt.Manager.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

// AuthMiddleware validates bearer access tokens locally.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth rejects requests without a valid access token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			response.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		claims, err := m.validator.ValidateToken(c.Request.Context(), strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, jwt.ErrExpiredToken):
				msg = "token has expired"
			case errors.Is(err, jwt.ErrRevokedToken):
				msg = "token has been revoked"
			}
			response.Unauthorized(c, msg)
			c.Abort()
			return
		}
		if claims.Type != jwt.TokenTypeAccess {
			response.Unauthorized(c, "access token required")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(DisplayNameKey, claims.DisplayName)
		c.Set(TokenIDKey, claims.ID)
		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))

		c.Next()
	}
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	return getString(c, UserIDKey)
}

// GetEmail extracts email from Gin context.
func GetEmail(c *gin.Context) string {
	return getString(c, EmailKey)
}

// GetDisplayName extracts the display name from Gin context.
func GetDisplayName(c *gin.Context) string {
	return getString(c, DisplayNameKey)
}

func getString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
