// Package slo publishes service level indicators for the generated content:
// how complete the current day is and how long ago a kind last completed.
package slo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Targets for the generated content.
const (
	// CompletenessTarget is the share of a day's units that must be stored
	// once its cycle has run (all twelve signs, one article per active writer).
	CompletenessTarget = 1.0

	// FreshnessTarget is the longest acceptable gap between two complete
	// cycles of one kind. A daily cadence plus two hours of slack.
	FreshnessTarget = 26 * time.Hour
)

var (
	// Completeness is (stored units) / (expected units) for the period of
	// the most recent cycle of each kind.
	Completeness = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slo_content_completeness_ratio",
			Help: "Share of the current period's units that are stored (0-1), target: 1",
		},
		[]string{"kind"},
	)

	// LastComplete is the Unix time of the most recent cycle that left its
	// period with every unit stored.
	LastComplete = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slo_last_complete_cycle_timestamp",
			Help: "Unix timestamp of the last cycle that completed its period, target age: 26h",
		},
		[]string{"kind"},
	)
)

// RecordCycle publishes the indicators for one finished cycle. stored counts
// units present after the cycle (generated plus already present); expected
// counts the units the period should have. A period with nothing expected is
// complete.
func RecordCycle(kind string, stored, expected int, at time.Time) {
	ratio := 1.0
	if expected > 0 {
		ratio = float64(stored) / float64(expected)
	}
	Completeness.WithLabelValues(kind).Set(ratio)

	if ratio >= CompletenessTarget {
		LastComplete.WithLabelValues(kind).Set(float64(at.Unix()))
	}
}

// Stale reports whether lastComplete is older than FreshnessTarget at now.
// A zero lastComplete is stale.
func Stale(lastComplete, now time.Time) bool {
	return lastComplete.IsZero() || now.Sub(lastComplete) > FreshnessTarget
}
