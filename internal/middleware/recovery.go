package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"pozt-backend/internal/apperr"
	"pozt-backend/pkg/utils"
)

var errPanic = &apperr.Error{Kind: apperr.KindInternal, Code: "internal", Message: "Internal server error"}

func PanicRecovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					id := RequestIDFromContext(r.Context())
					if id == "" {
						id = w.Header().Get(RequestIDHeader)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", id),
						zap.Stack("stack"),
					)
					utils.Error(w, errPanic)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
