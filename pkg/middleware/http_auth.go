package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/pkg/response"
)

// AccessTokenQueryParam carries the token for WebSocket upgrades, which
// browsers cannot send headers with.
const AccessTokenQueryParam = "access_token"

type claimsKey struct{}

// WithClaims stores validated claims on ctx.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by RequireAuthHTTP.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	return claims, ok
}

// RequireAuthHTTP is RequireAuth for plain net/http routers. The token is
// read from the Authorization header, falling back to ?access_token=.
func (m *AuthMiddleware) RequireAuthHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get(AccessTokenQueryParam)
		if header := r.Header.Get(AuthHeaderKey); header != "" {
			if !strings.HasPrefix(header, BearerPrefix) {
				writeUnauthorized(w, "invalid authorization format")
				return
			}
			token = strings.TrimPrefix(header, BearerPrefix)
		}
		if token == "" {
			writeUnauthorized(w, "missing authorization header")
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), token)
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, jwt.ErrExpiredToken):
				msg = "token has expired"
			case errors.Is(err, jwt.ErrRevokedToken):
				msg = "token has been revoked"
			}
			writeUnauthorized(w, msg)
			return
		}
		if claims.Type != jwt.TokenTypeAccess {
			writeUnauthorized(w, "access token required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(response.Response{
		Error: &response.ErrorInfo{Code: response.CodeUnauthorized, Message: msg},
	})
}
