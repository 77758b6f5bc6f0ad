package http

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"astrofeed/internal/pkg/config"
)

// APIConfig configures the read API server.
type APIConfig struct {
	Addr           string
	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	TrustProxy     bool
	Timezone       string
}

// DefaultAPIConfig returns the defaults used when no variable is set.
func DefaultAPIConfig() APIConfig {
	return APIConfig{
		Addr:           ":8080",
		RequestTimeout: 10 * time.Second,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		TrustProxy:     false,
		Timezone:       "UTC",
	}
}

// Location resolves Timezone, defaulting to UTC.
func (c APIConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate reports every invalid field.
func (c APIConfig) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr: must not be empty"))
	}
	if err := config.ValidateDuration(c.RequestTimeout, 100*time.Millisecond, 5*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("request timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.RateLimitRPS, 0, 10000); err != nil {
		errs = append(errs, fmt.Errorf("rate limit rps: %w", err))
	}
	if err := config.ValidateIntRange(c.RateLimitBurst, 1, 10000); err != nil {
		errs = append(errs, fmt.Errorf("rate limit burst: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	return errors.Join(errs...)
}

// LoadAPIConfigFromEnv reads API_ADDR, API_REQUEST_TIMEOUT, API_RATE_LIMIT_RPS
// (0 disables limiting), API_RATE_LIMIT_BURST, API_TRUST_PROXY and
// WORKER_TIMEZONE. Invalid values fall back to defaults with a warning.
func LoadAPIConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) APIConfig {
	cfg := DefaultAPIConfig()

	apply := func(field string, outcome config.Outcome) {
		if !metrics.Apply(field, outcome) {
			return
		}
		for _, w := range outcome.Warnings {
			logger.Warn("Configuration fallback applied", slog.String("field", field), slog.String("warning", w))
		}
	}

	cfg.Addr = config.LoadEnvString("API_ADDR", cfg.Addr)

	timeout := config.LoadEnvDuration("API_REQUEST_TIMEOUT", cfg.RequestTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 100*time.Millisecond, 5*time.Minute)
	})
	cfg.RequestTimeout = timeout.Value
	apply("request_timeout", timeout.Outcome)

	rps := config.LoadEnvInt("API_RATE_LIMIT_RPS", cfg.RateLimitRPS, func(n int) error {
		return config.ValidateIntRange(n, 0, 10000)
	})
	cfg.RateLimitRPS = rps.Value
	apply("rate_limit_rps", rps.Outcome)

	burst := config.LoadEnvInt("API_RATE_LIMIT_BURST", cfg.RateLimitBurst, func(n int) error {
		return config.ValidateIntRange(n, 1, 10000)
	})
	cfg.RateLimitBurst = burst.Value
	apply("rate_limit_burst", burst.Outcome)

	trust := config.LoadEnvBool("API_TRUST_PROXY", cfg.TrustProxy)
	cfg.TrustProxy = trust.Value
	apply("trust_proxy", trust.Outcome)

	tz := config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = tz.Value
	apply("timezone", tz.Outcome)

	return cfg
}
