// Package circuitbreaker stops calls to a content provider backend that keeps
// failing. It is a thin layer over github.com/sony/gobreaker that adds
// per-backend presets, an error filter and state reporting.
package circuitbreaker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"astrofeed/internal/observability/metrics"
)

// ErrOpen is wrapped into every error returned for a call the breaker refused.
// The gobreaker sentinel is wrapped as well.
var ErrOpen = errors.New("circuit open")

// Config tunes one breaker.
type Config struct {
	Name string

	// Probes is how many trial calls a half-open breaker lets through.
	Probes uint32

	// Window clears the closed-state counts; zero keeps them until a trip.
	Window time.Duration

	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration

	// TripRatio is the failure share that opens the breaker once at least
	// MinCalls calls were counted in the window.
	TripRatio float64
	MinCalls  uint32
}

// DefaultConfig is used for backends without a dedicated preset.
func DefaultConfig(name string) Config {
	return Config{
		Name:      name,
		Probes:    3,
		Window:    30 * time.Second,
		Cooldown:  time.Minute,
		TripRatio: 0.6,
		MinCalls:  5,
	}
}

// TextProviderConfig is the preset for a text completion backend.
func TextProviderConfig(backend string) Config {
	return DefaultConfig(backend + "-text")
}

// ImageProviderConfig opens sooner and stays open longer than the text preset.
func ImageProviderConfig(backend string) Config {
	return Config{
		Name:      backend + "-image",
		Probes:    1,
		Window:    time.Minute,
		Cooldown:  2 * time.Minute,
		TripRatio: 0.5,
		MinCalls:  4,
	}
}

func (c Config) tripped(counts gobreaker.Counts) bool {
	if counts.Requests < c.MinCalls {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.TripRatio
}

// Breaker guards calls to one backend. It is safe for concurrent use.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker
	name string
}

// New builds a breaker. ignore reports errors that must not count as a
// failure, such as a backend refusing bad input; nil counts every error.
func New(cfg Config, ignore func(error) bool) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.Probes,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: cfg.tripped,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitState(name, int(to))
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	if ignore != nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || ignore(err)
		}
	}

	metrics.SetCircuitState(cfg.Name, int(gobreaker.StateClosed))
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), name: cfg.Name}
}

// Call runs fn unless the breaker is open. A refused call returns an error
// matching both ErrOpen and the gobreaker sentinel; otherwise fn's error is
// returned unchanged.
func (b *Breaker) Call(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %w", b.name, ErrOpen, err)
	}
	return err
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) Name() string { return b.name }
