package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pozt-backend/internal/auth"
	"pozt-backend/internal/handlers"
	"pozt-backend/internal/middleware"
)

func NewRouter(
	userHandler *handlers.UserHandler,
	locationHandler *handlers.LocationHandler,
	shipperHandler *handlers.ShipperHandler,
	orderHandler *handlers.OrderHandler,
	healthHandler *handlers.HealthHandler,
	orderFeed http.Handler,
	authMiddleware *middleware.AuthMiddleware,
	logger *zap.Logger,
) *mux.Router {
	r := mux.NewRouter()
	// The request logger runs first so recovered panics carry the request id and log as 500s.
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PanicRecovery(logger))
	r.Use(middleware.MetricsMiddleware)

	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireScope(auth.ScopeAuthenticated)(h)
	}

	api := r.PathPrefix("/api").Subrouter()

	// Public API routes - registration and two-step login
	api.HandleFunc("/users/register", userHandler.Register).Methods("POST")
	api.HandleFunc("/users/login", userHandler.Login).Methods("POST")
	api.HandleFunc("/users/verify-otp", userHandler.VerifyOTP).Methods("POST")
	api.HandleFunc("/users/resend-otp", userHandler.ResendOTP).Methods("POST")

	// Reference data
	api.HandleFunc("/states", locationHandler.ListStates).Methods("GET")
	api.Handle("/states", protect(locationHandler.CreateState)).Methods("POST")
	api.HandleFunc("/cities", locationHandler.ListCities).Methods("GET")
	api.Handle("/cities", protect(locationHandler.CreateCity)).Methods("POST")

	// Shippers
	api.HandleFunc("/shippers", shipperHandler.List).Methods("GET")
	api.Handle("/shippers", protect(shipperHandler.Create)).Methods("POST")
	api.HandleFunc("/shippers/{code}", shipperHandler.Get).Methods("GET")

	// Orders
	api.HandleFunc("/orders", orderHandler.List).Methods("GET")
	api.Handle("/orders", protect(orderHandler.Create)).Methods("POST")
	api.HandleFunc("/orders/shipper/{code}", orderHandler.ListByShipper).Methods("GET")
	api.HandleFunc("/orders/{tracking_id}/awb", orderHandler.AWB).Methods("GET")
	api.HandleFunc("/orders/{tracking_id}", orderHandler.Get).Methods("GET")

	// Live order feed
	r.Handle("/ws/orders", orderFeed).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
