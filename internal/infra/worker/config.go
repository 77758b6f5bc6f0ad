package worker

import (
	"fmt"
	"log/slog"
	"time"

	"astrofeed/internal/pkg/config"
)

// WorkerConfig holds the scheduling configuration of the worker process.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Invalid values never stop the worker: each one falls back to its default
// with a warning and a fallback metric.
type WorkerConfig struct {
	// CronSchedule is the five-field cron expression of the fixed generation
	// cadence. Default: "0 0 * * *" (midnight).
	CronSchedule string

	// Timezone is the IANA zone CronSchedule is evaluated in. It also decides
	// which calendar day a firing generates for. Default: "UTC".
	Timezone string

	// RunOnStartup fires the generation jobs once when the worker starts so a
	// restart does not wait a full day to backfill. Default: true.
	RunOnStartup bool

	// CycleTimeout bounds one generation cycle. Range: 1m-6h. Default: 1h.
	CycleTimeout time.Duration

	// HousekeepingMinInterval and HousekeepingMaxInterval bound the random
	// delay between housekeeping runs. Min must not exceed Max.
	// Defaults: 1m and 5m.
	HousekeepingMinInterval time.Duration
	HousekeepingMaxInterval time.Duration

	// HealthPort is the port of the liveness/readiness server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with default values.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:            "0 0 * * *",
		Timezone:                "UTC",
		RunOnStartup:            true,
		CycleTimeout:            time.Hour,
		HousekeepingMinInterval: time.Minute,
		HousekeepingMaxInterval: 5 * time.Minute,
		HealthPort:              9091,
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks every field and returns all problems at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.CycleTimeout, time.Minute, 6*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("cycle timeout: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.HousekeepingMinInterval); err != nil {
		errs = append(errs, fmt.Errorf("housekeeping min interval: %w", err))
	}
	if c.HousekeepingMaxInterval < c.HousekeepingMinInterval {
		errs = append(errs, fmt.Errorf("housekeeping max interval %v is below min interval %v",
			c.HousekeepingMaxInterval, c.HousekeepingMinInterval))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration from environment variables
// with per-field fallback to defaults. It never fails.
//
// Environment variables:
//   - CRON_SCHEDULE: cron expression (default: "0 0 * * *")
//   - WORKER_TIMEZONE: IANA zone name (default: "UTC")
//   - WORKER_RUN_ON_STARTUP: boolean (default: true)
//   - CYCLE_TIMEOUT: duration 1m-6h (default: 1h)
//   - HOUSEKEEPING_MIN_INTERVAL, HOUSEKEEPING_MAX_INTERVAL: durations 1s-24h
//     (defaults: 1m, 5m); an inverted pair falls back to both defaults
//   - WORKER_HEALTH_PORT: 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, outcome config.Outcome) {
		if !metrics.Apply(field, outcome) {
			return
		}
		fallbackApplied = true
		for _, warning := range outcome.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	schedule := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = schedule.Value
	apply("cron_schedule", schedule.Outcome)

	tz := config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = tz.Value
	apply("timezone", tz.Outcome)

	onStartup := config.LoadEnvBool("WORKER_RUN_ON_STARTUP", cfg.RunOnStartup)
	cfg.RunOnStartup = onStartup.Value
	apply("run_on_startup", onStartup.Outcome)

	timeout := config.LoadEnvDuration("CYCLE_TIMEOUT", cfg.CycleTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 6*time.Hour)
	})
	cfg.CycleTimeout = timeout.Value
	apply("cycle_timeout", timeout.Outcome)

	interval := func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 24*time.Hour)
	}
	minInterval := config.LoadEnvDuration("HOUSEKEEPING_MIN_INTERVAL", cfg.HousekeepingMinInterval, interval)
	cfg.HousekeepingMinInterval = minInterval.Value
	apply("housekeeping_min_interval", minInterval.Outcome)

	maxInterval := config.LoadEnvDuration("HOUSEKEEPING_MAX_INTERVAL", cfg.HousekeepingMaxInterval, interval)
	cfg.HousekeepingMaxInterval = maxInterval.Value
	apply("housekeeping_max_interval", maxInterval.Outcome)

	if cfg.HousekeepingMaxInterval < cfg.HousekeepingMinInterval {
		defaults := DefaultConfig()
		apply("housekeeping_max_interval", config.Outcome{
			FallbackApplied: true,
			Warnings: []string{fmt.Sprintf(
				"HOUSEKEEPING_MAX_INTERVAL=%v is below HOUSEKEEPING_MIN_INTERVAL=%v, falling back to defaults '%v'-'%v'",
				cfg.HousekeepingMaxInterval, cfg.HousekeepingMinInterval,
				defaults.HousekeepingMinInterval, defaults.HousekeepingMaxInterval)},
		})
		cfg.HousekeepingMinInterval = defaults.HousekeepingMinInterval
		cfg.HousekeepingMaxInterval = defaults.HousekeepingMaxInterval
	}

	port := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = port.Value
	apply("health_port", port.Outcome)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
