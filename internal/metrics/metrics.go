package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pozt_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pozt_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// OTPIssued counts issuance outcomes: issued, cooldown, undelivered, error.
	OTPIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pozt_otp_issued_total",
			Help: "OTP issuance attempts by outcome.",
		},
		[]string{"result"},
	)

	// OTPVerified counts verification outcomes: verified, invalid, expired, error.
	OTPVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pozt_otp_verified_total",
			Help: "OTP verification attempts by outcome.",
		},
		[]string{"result"},
	)

	OTPSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pozt_otp_swept_total",
			Help: "Expired OTP records removed by the sweeper.",
		},
	)

	IDCollisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pozt_id_collisions_total",
			Help: "Generated identifiers rejected because they were already taken.",
		},
		[]string{"kind"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pozt_notifications_total",
			Help: "Notification deliveries by provider and result.",
		},
		[]string{"provider", "result"},
	)

	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pozt_orders_created_total",
			Help: "Orders persisted.",
		},
	)

	LiveFeedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pozt_order_feed_clients",
			Help: "Connected order feed websocket clients.",
		},
	)
)
