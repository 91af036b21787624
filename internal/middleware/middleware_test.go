package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pozt-backend/internal/auth"
	"pozt-backend/internal/models"
	"pozt-backend/pkg/utils"
)

func newJWT() *auth.JWTManager {
	return auth.NewJWTManager("test-secret", "pozt-test", time.Hour, 5*time.Minute)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if ok {
		w.Header().Set("X-User", claims.Email)
	}
	w.WriteHeader(http.StatusNoContent)
}

func tokenFor(t *testing.T, j *auth.JWTManager, scope string) string {
	t.Helper()
	token, err := j.Mint(&models.User{ID: uuid.New(), Name: "Asha", Email: "asha@example.com"}, scope)
	require.NoError(t, err)
	return token
}

func TestRequireScope(t *testing.T) {
	j := newJWT()
	h := NewAuthMiddleware(j, true).RequireScope(auth.ScopeAuthenticated)(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "auth_required"},
		{"bad format", "Token abc", http.StatusUnauthorized, "auth_format"},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, "invalid_token"},
		{"pending scope", "Bearer " + tokenFor(t, j, auth.ScopePendingMFA), http.StatusUnauthorized, "insufficient_scope"},
		{"authenticated", "Bearer " + tokenFor(t, j, auth.ScopeAuthenticated), http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				var body utils.ErrorBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.code, body.Code)
			} else {
				assert.Equal(t, "asha@example.com", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestRequireScopeDisabled(t *testing.T) {
	h := NewAuthMiddleware(newJWT(), false).RequireScope(auth.ScopeAuthenticated)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body utils.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Error)
}

func TestPanicLogCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := RequestLogger(logger)(PanicRecovery(logger)(panicking))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "req-42", panics[0].ContextMap()["request_id"])

	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 1)
	assert.EqualValues(t, http.StatusInternalServerError, requests[0].ContextMap()["status"])
}

func TestPanicRecoveryReadsResponseHeaderID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := PanicRecovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	rec.Header().Set(RequestIDHeader, "from-header")
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "from-header", panics[0].ContextMap()["request_id"])
}

func TestRequestLoggerAssignsID(t *testing.T) {
	var seen string
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/states", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/states", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	var route string
	r.HandleFunc("/api/orders/{tracking_id}", func(w http.ResponseWriter, req *http.Request) {
		route = routeTemplate(req)
	})
	r.Use(MetricsMiddleware)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/POZT1", nil))
	assert.Equal(t, "/api/orders/{tracking_id}", route)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.9")
	assert.Equal(t, "10.0.0.9", clientIP(req))
}
