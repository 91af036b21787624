package middleware

import (
	"context"
	"net/http"
	"strings"

	"pozt-backend/internal/apperr"
	"pozt-backend/internal/auth"
	"pozt-backend/pkg/utils"
)

type contextKey string

const ClaimsKey contextKey = "claims"

var (
	errAuthHeader   = apperr.Unauthorized("auth_required", "Authorization header required")
	errAuthFormat   = apperr.Unauthorized("auth_format", "Invalid authorization format")
	errInvalidToken = apperr.Unauthorized("invalid_token", "Invalid or expired token")
	errWrongScope   = apperr.Unauthorized("insufficient_scope", "OTP verification required")
)

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	enabled    bool
}

// NewAuthMiddleware returns a middleware whose RequireScope is a no-op when enabled is false.
func NewAuthMiddleware(jwtManager *auth.JWTManager, enabled bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		enabled:    enabled,
	}
}

// RequireScope rejects requests without a valid bearer token carrying scope.
func (m *AuthMiddleware) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !m.enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.Error(w, errAuthHeader)
				return
			}

			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				utils.Error(w, errAuthFormat)
				return
			}

			claims, err := m.jwtManager.Parse(parts[1])
			if err != nil {
				utils.Error(w, errInvalidToken.Wrap(err))
				return
			}
			if claims.Scope != scope {
				utils.Error(w, errWrongScope)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified token claims of the request, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}
