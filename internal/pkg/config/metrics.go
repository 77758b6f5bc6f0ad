package config

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics counts configuration problems of one component. Metric names
// are prefixed with the component, e.g. worker_config_fallbacks_total.
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge

	component string
}

// NewConfigMetrics registers the metrics of component with the default
// registry. It panics when called twice for the same component.
func NewConfigMetrics(component string) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: component + "_config_load_timestamp",
			Help: "Unix timestamp of the last " + component + " configuration load",
		}),
		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: component + "_config_validation_errors_total",
			Help: "Rejected " + component + " configuration values by field",
		}, []string{"field"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: component + "_config_fallbacks_total",
			Help: "Fallbacks applied to " + component + " configuration by field and reason",
		}, []string{"field", "reason"}),
		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: component + "_config_fallback_active",
			Help: "1 while any " + component + " configuration value is a fallback",
		}),
		component: component,
	}
}

// Component returns the name the metrics were registered under.
func (m *ConfigMetrics) Component() string { return m.component }

// RecordLoadTimestamp stamps the current time as the last load.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.Set(float64(time.Now().Unix()))
}

// RecordValidationError counts one rejected value of field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts one fallback of field. reason is typically "default".
func (m *ConfigMetrics) RecordFallback(field, reason string) {
	m.FallbacksTotal.WithLabelValues(field, reason).Inc()
}

// SetFallbackActive publishes whether any fallback is in effect.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}

// Apply records outcome for field and returns whether a fallback happened.
func (m *ConfigMetrics) Apply(field string, outcome Outcome) bool {
	if !outcome.FallbackApplied {
		return false
	}
	m.RecordValidationError(field)
	m.RecordFallback(field, "default")
	return true
}
