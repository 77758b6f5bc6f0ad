// Package retry repeats an operation with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// Config is a retry policy. The zero value makes a single attempt.
type Config struct {
	// MaxAttempts counts the first call. Values below 1 mean 1.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	// Multiplier grows the delay after each failed attempt. Values below 1
	// keep the delay constant.
	Multiplier float64
	// Jitter adds up to this fraction of the delay at random, in [0, 1].
	Jitter float64

	// Retryable decides whether an error is worth another attempt.
	// Nil means IsRetryable.
	Retryable func(error) bool

	// OnRetry, when set, is called before each pause.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// GenerationConfig is the policy for one generation unit: a few attempts
// with delays of 2s, 4s, 8s (capped at 10s) and 10% jitter. Provider calls
// are paid for, so the policy stays short.
func GenerationConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:  max(maxAttempts, 1),
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       0.1,
	}
}

// Delay returns the pause after the given failed attempt (1-based), before
// jitter.
func (c Config) Delay(attempt int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 1; i < attempt && c.Multiplier > 1; i++ {
		d *= c.Multiplier
		if c.MaxDelay > 0 && d >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && time.Duration(d) > c.MaxDelay {
		return c.MaxDelay
	}
	return time.Duration(d)
}

func (c Config) jittered(d time.Duration) time.Duration {
	frac := min(c.Jitter, 1)
	if frac <= 0 || d <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*frac*float64(d))
}

// Do calls fn until it succeeds, fails with a non-retryable error, or runs
// out of attempts. The last error is always wrapped in the result, so
// errors.Is and errors.As see through it.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == attempts {
			if attempts == 1 {
				return err
			}
			return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
		}

		delay := cfg.jittered(cfg.Delay(attempt))
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry interrupted after attempt %d: %w: %w", attempt, ctx.Err(), err)
		}
	}
}

// IsRetryable is the default policy: network timeouts and HTTP 408, 429 and
// 5xx responses. Context cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch code := httpErr.StatusCode; {
		case code >= 500 && code < 600,
			code == http.StatusTooManyRequests,
			code == http.StatusRequestTimeout:
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx response from a backend without a typed SDK error.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
