package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts served requests by route template.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthGateDecisions counts authorization gate outcomes.
	AuthGateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_gate_decisions_total",
		Help: "Authorization gate outcomes.",
	}, []string{"outcome"})

	// AuthGuardRejections counts guard denials by guard and status.
	AuthGuardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_guard_rejections_total",
		Help: "Requests rejected by role guards.",
	}, []string{"guard", "status"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	EmailJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "email_jobs_total",
		Help: "Email jobs by result (enqueued, sent, retried, dead, failed).",
	}, []string{"result"})

	EmailQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "email_queue_depth",
		Help: "Email queue list lengths.",
	}, []string{"list"})

	CircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 open, 2 half-open).",
	}, []string{"name"})

	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_uploads_total",
		Help: "Media uploads by kind and result.",
	}, []string{"kind", "result"})
)
