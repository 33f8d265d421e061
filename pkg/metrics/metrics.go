package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the application's metrics registry, exposed at /api/metrics.
// A dedicated registry keeps default Go collector noise out of dashboards.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Custom histogram buckets for API response times from milliseconds up to
	// slow external payment-provider calls
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Database Client Metrics
	DBRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "Database client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	DBRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_client_operation_total",
			Help: "Total number of database client operations",
		},
		[]string{"operation", "status"},
	)

	// Payment Provider Metrics
	PaygateRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paygate_client_operation_duration_seconds",
			Help:    "Payment provider operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	PaymentIntents = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_payment_intents_total",
			Help: "Total number of payment intent creations",
		},
		[]string{"status"},
	)

	WebhookEvents = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_payment_webhook_events_total",
			Help: "Total number of payment webhook events received",
		},
		[]string{"kind", "status"},
	)

	// Cache Metrics
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	// Business Metrics
	TrainerApplications = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_trainer_applications_total",
			Help: "Total trainer verification applications",
		},
		[]string{"status"},
	)

	VerificationDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_verification_decisions_total",
			Help: "Total trainer verification decision link redemptions",
		},
		[]string{"action", "status"},
	)

	BookingsCreated = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_bookings_created_total",
			Help: "Total bookings created",
		},
		[]string{"payment_method", "status"},
	)

	PaymentTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_booking_payment_transitions_total",
			Help: "Total booking payment status transitions",
		},
		[]string{"target", "status"},
	)

	SessionsCreated = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_sessions_created_total",
			Help: "Total lesson sessions created",
		},
		[]string{"status"},
	)

	SessionTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_session_transitions_total",
			Help: "Total lesson session status transitions",
		},
		[]string{"target", "status"},
	)

	ReviewSubmissions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_review_submissions_total",
			Help: "Total review submissions",
		},
		[]string{"status"},
	)

	RatingRecomputeDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutorhub_rating_recompute_duration_seconds",
			Help:    "Duration of trainer rating aggregate recomputation",
			Buckets: prometheus.DefBuckets,
		},
	)

	AuthLogins = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_auth_logins_total",
			Help: "Total login attempts",
		},
		[]string{"status"},
	)

	// Infrastructure Metrics
	GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
