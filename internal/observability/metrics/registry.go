package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every series this package registers.
const Namespace = "astrofeed"

// Read API.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Read API requests by method, route template and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Read API latency by method, route template and status.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "path", "status"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Read API requests currently being served.",
	})
)

// Generation and the stored corpus.
var (
	EntitiesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "entities",
		Help:      "Stored entities by kind, refreshed by housekeeping.",
	}, []string{"kind"})

	// GenerationCyclesTotal is labeled with the state the cycle ended in.
	GenerationCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "generation",
		Name:      "cycles_total",
		Help:      "Finished generation cycles by kind and final state.",
	}, []string{"kind", "state"})

	// GenerationUnitsTotal outcome is generated, skipped or failed.
	GenerationUnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "generation",
		Name:      "units_total",
		Help:      "Generation units by kind and outcome.",
	}, []string{"kind", "outcome"})

	GenerationCycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "generation",
		Name:      "cycle_duration_seconds",
		Help:      "Wall-clock time of one generation cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"kind"})

	// ProviderRequestsTotal outcome is success, unavailable, rejected or timeout.
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Content provider calls by backend and outcome.",
	}, []string{"provider", "outcome"})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Content provider call latency.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"provider"})

	ProviderCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "circuit_state",
		Help:      "Circuit breaker state per backend: 0 closed, 1 half-open, 2 open.",
	}, []string{"circuit"})
)

// Datastore.
var (
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "db",
		Name:      "operation_duration_seconds",
		Help:      "Repository operation latency by entity kind and operation.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"kind", "operation"})

	DBErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "db",
		Name:      "errors_total",
		Help:      "Failed repository operations by entity kind, operation and error class.",
	}, []string{"kind", "operation", "error_type"})

	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "db",
		Name:      "connections_in_use",
		Help:      "Pool connections currently in use.",
	})

	DBConnectionsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "db",
		Name:      "connections_idle",
		Help:      "Idle pool connections.",
	})
)

// RecordHTTPRequest records one served request. path must be a route
// template, never a raw URL path.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordOperationDuration(kind, operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(kind, operation).Observe(duration.Seconds())
}

func RecordOperationError(kind, operation, errorType string) {
	DBErrorsTotal.WithLabelValues(kind, operation, errorType).Inc()
}
