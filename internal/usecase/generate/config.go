package generate

import (
	"time"

	pkgconfig "astrofeed/internal/pkg/config"
	"astrofeed/internal/resilience/retry"
)

// Config tunes the orchestrator.
type Config struct {
	// Concurrency caps units generated at once within a cycle.
	Concurrency int

	// UnitTimeout bounds one unit including its retries.
	UnitTimeout time.Duration

	// Retry is applied per unit to provider unavailable and timeout failures.
	Retry retry.Config
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 3,
		UnitTimeout: 3 * time.Minute,
		Retry:       retry.GenerationConfig(3),
	}
}

// LoadConfigFromEnv reads GENERATION_CONCURRENCY, GENERATION_TIMEOUT and
// PROVIDER_MAX_ATTEMPTS. Invalid values fall back to defaults with a warning.
func LoadConfigFromEnv() (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	conc := pkgconfig.LoadEnvInt("GENERATION_CONCURRENCY", cfg.Concurrency, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 12)
	})
	cfg.Concurrency = conc.Value
	warnings = append(warnings, conc.Warnings...)

	timeout := pkgconfig.LoadEnvDuration("GENERATION_TIMEOUT", cfg.UnitTimeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, time.Hour)
	})
	cfg.UnitTimeout = timeout.Value
	warnings = append(warnings, timeout.Warnings...)

	attempts := pkgconfig.LoadEnvInt("PROVIDER_MAX_ATTEMPTS", cfg.Retry.MaxAttempts, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 10)
	})
	cfg.Retry = retry.GenerationConfig(attempts.Value)
	warnings = append(warnings, attempts.Warnings...)

	return cfg, warnings
}
