package metrics

import (
	"database/sql"
	"time"
)

// RecordCycle records the outcome of one generation cycle.
func RecordCycle(kind, state string, generated, skipped, failed int, duration time.Duration) {
	GenerationCyclesTotal.WithLabelValues(kind, state).Inc()
	GenerationCycleDuration.WithLabelValues(kind).Observe(duration.Seconds())

	if generated > 0 {
		GenerationUnitsTotal.WithLabelValues(kind, "generated").Add(float64(generated))
	}
	if skipped > 0 {
		GenerationUnitsTotal.WithLabelValues(kind, "skipped").Add(float64(skipped))
	}
	if failed > 0 {
		GenerationUnitsTotal.WithLabelValues(kind, "failed").Add(float64(failed))
	}
}

// RecordProviderRequest records one content provider call.
// Outcome is "success" or the failure kind.
func RecordProviderRequest(provider, outcome string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// SetCircuitState publishes the numeric state of a named circuit breaker.
func SetCircuitState(circuit string, state int) {
	ProviderCircuitState.WithLabelValues(circuit).Set(float64(state))
}

// SetEntityCount updates the stored entity gauge for kind.
func SetEntityCount(kind string, n int) {
	EntitiesTotal.WithLabelValues(kind).Set(float64(n))
}

// RecordDBStats copies connection pool statistics into the gauges.
func RecordDBStats(stats sql.DBStats) {
	DBConnectionsActive.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}
