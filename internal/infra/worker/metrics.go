package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"astrofeed/internal/pkg/config"
)

// WorkerMetrics provides Prometheus metrics for the worker process. It embeds
// ConfigMetrics (worker_config_*) and adds scheduler and job metrics:
//   - worker_scheduler_firings_total{trigger}: startup, cron and random firings
//   - worker_job_runs_total{job,status}: started, success, failure, panic
//   - worker_job_duration_seconds{job}
//   - worker_job_last_success_timestamp{job}
//   - worker_random_interval_average_seconds: running average of the
//     randomized cadence
type WorkerMetrics struct {
	*config.ConfigMetrics

	FiringsTotal                 *prometheus.CounterVec
	JobRunsTotal                 *prometheus.CounterVec
	JobDurationSeconds           *prometheus.HistogramVec
	JobLastSuccessTimestamp      *prometheus.GaugeVec
	RandomIntervalAverageSeconds prometheus.Gauge
}

// NewWorkerMetrics creates and registers the worker metrics with the default
// registry. Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		FiringsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_scheduler_firings_total",
			Help: "Total number of scheduler firings by trigger",
		}, []string{"trigger"}),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of job runs by job and status",
		}, []string{"job", "status"}),

		JobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job execution in seconds",
			Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 1800, 3600},
		}, []string{"job"}),

		JobLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per job",
		}, []string{"job"}),

		RandomIntervalAverageSeconds: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_random_interval_average_seconds",
			Help: "Running average of observed intervals of the randomized cadence",
		}),
	}
}

// RecordFiring counts one scheduler firing.
func (m *WorkerMetrics) RecordFiring(trigger string) {
	m.FiringsTotal.WithLabelValues(trigger).Inc()
}

// RecordJobRun counts one job run with the given status.
func (m *WorkerMetrics) RecordJobRun(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes how long a job ran.
func (m *WorkerMetrics) RecordJobDuration(job string, d time.Duration) {
	m.JobDurationSeconds.WithLabelValues(job).Observe(d.Seconds())
}

// RecordLastSuccess stamps the current time as the job's last success.
func (m *WorkerMetrics) RecordLastSuccess(job string) {
	m.JobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// SetAverageInterval publishes the randomized cadence's running average.
func (m *WorkerMetrics) SetAverageInterval(d time.Duration) {
	m.RandomIntervalAverageSeconds.Set(d.Seconds())
}
