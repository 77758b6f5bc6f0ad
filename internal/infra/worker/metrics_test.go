package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWorkerMetrics(t *testing.T) {
	m := globalTestMetrics

	if m.ConfigMetrics == nil {
		t.Error("ConfigMetrics is nil")
	}
	if m.FiringsTotal == nil || m.JobRunsTotal == nil || m.JobDurationSeconds == nil {
		t.Error("job metrics not initialized")
	}
	if m.JobLastSuccessTimestamp == nil || m.RandomIntervalAverageSeconds == nil {
		t.Error("gauges not initialized")
	}
}

// isolatedMetrics builds WorkerMetrics on a private registry.
func isolatedMetrics(t *testing.T) *WorkerMetrics {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := &WorkerMetrics{
		FiringsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_firings_total", Help: "test",
		}, []string{"trigger"}),
		JobRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_job_runs_total", Help: "test",
		}, []string{"job", "status"}),
		JobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "test_job_duration_seconds", Help: "test",
		}, []string{"job"}),
		JobLastSuccessTimestamp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "test_job_last_success", Help: "test",
		}, []string{"job"}),
		RandomIntervalAverageSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "test_random_interval_average", Help: "test",
		}),
	}
	reg.MustRegister(m.FiringsTotal, m.JobRunsTotal, m.JobDurationSeconds,
		m.JobLastSuccessTimestamp, m.RandomIntervalAverageSeconds)
	return m
}

func TestWorkerMetrics_RecordJobRun(t *testing.T) {
	m := isolatedMetrics(t)

	m.RecordJobRun("horoscopes", "success")
	m.RecordJobRun("horoscopes", "success")
	m.RecordJobRun("articles", "failure")

	if got := testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("horoscopes", "success")); got != 2 {
		t.Errorf("horoscopes success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("articles", "failure")); got != 1 {
		t.Errorf("articles failure = %v, want 1", got)
	}
}

func TestWorkerMetrics_RecordJobDuration(t *testing.T) {
	m := isolatedMetrics(t)

	m.RecordJobDuration("horoscopes", 1500*time.Millisecond)
	m.RecordJobDuration("horoscopes", 2*time.Second)

	if n := testutil.CollectAndCount(m.JobDurationSeconds); n != 1 {
		t.Errorf("expected one histogram series, got %d", n)
	}
}

func TestWorkerMetrics_RecordLastSuccess(t *testing.T) {
	m := isolatedMetrics(t)
	before := float64(time.Now().Unix())

	m.RecordLastSuccess("articles")

	got := testutil.ToFloat64(m.JobLastSuccessTimestamp.WithLabelValues("articles"))
	if got < before {
		t.Errorf("last success %v is before test start %v", got, before)
	}
}

func TestWorkerMetrics_FiringsAndAverage(t *testing.T) {
	m := isolatedMetrics(t)

	m.RecordFiring(TriggerStartup)
	m.RecordFiring(TriggerCron)
	m.RecordFiring(TriggerCron)
	m.SetAverageInterval(2500 * time.Millisecond)

	if got := testutil.ToFloat64(m.FiringsTotal.WithLabelValues(TriggerCron)); got != 2 {
		t.Errorf("cron firings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RandomIntervalAverageSeconds); got != 2.5 {
		t.Errorf("average = %v, want 2.5", got)
	}
}

func TestWorkerMetrics_ConcurrentAccess(t *testing.T) {
	m := isolatedMetrics(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordJobRun("housekeeping", "success")
			m.RecordFiring(TriggerRandom)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("housekeeping", "success")); got != 50 {
		t.Errorf("runs = %v, want 50", got)
	}
}
