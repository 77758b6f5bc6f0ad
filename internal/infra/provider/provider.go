// Package provider adapts external content generation backends (LLM text,
// image inference) to one contract: a GenerationRequest in, an Artifact or a
// classified *entity.ProviderError out.
//
// Backends only translate requests and responses. Client wraps a backend with
// request validation, a rate limiter, a circuit breaker, a call timeout,
// failure classification and metrics. Clients never retry.
package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/observability/metrics"
	"astrofeed/internal/resilience/circuitbreaker"
)

// Generator is the capability every caller depends on.
type Generator interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (entity.Artifact, error)
}

// Backend is one concrete generation service.
type Backend interface {
	// Name identifies the backend in errors, logs and metrics.
	Name() string

	// Generate performs a single call. Errors are returned raw; Client classifies them.
	Generate(ctx context.Context, req entity.GenerationRequest) (entity.Artifact, error)
}

// Options tune the guard around a backend.
type Options struct {
	// Timeout bounds one call, including the wait for a rate limiter token.
	Timeout time.Duration

	// Interval is the minimum spacing between calls; Burst calls may go out at once.
	Interval time.Duration
	Burst    int

	// Breaker configures the circuit breaker. Zero means circuitbreaker.DefaultConfig.
	Breaker circuitbreaker.Config
}

// Client guards a Backend. It is safe for concurrent use.
type Client struct {
	backend Backend
	breaker *circuitbreaker.Breaker
	limiter *rate.Limiter
	timeout time.Duration
}

var _ Generator = (*Client)(nil)

// New wraps backend with the guard described by opts.
func New(backend Backend, opts Options) *Client {
	if opts.Breaker.Name == "" {
		opts.Breaker = circuitbreaker.DefaultConfig(backend.Name())
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}

	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}

	return &Client{
		backend: backend,
		// rejected requests say nothing about backend health
		breaker: circuitbreaker.New(opts.Breaker, func(err error) bool {
			return errors.Is(err, entity.ErrProviderRejected)
		}),
		limiter: rate.NewLimiter(limit, opts.Burst),
		timeout: opts.Timeout,
	}
}

// Name returns the wrapped backend's name.
func (c *Client) Name() string {
	return c.backend.Name()
}

// Generate validates req and runs one guarded backend call.
func (c *Client) Generate(ctx context.Context, req entity.GenerationRequest) (entity.Artifact, error) {
	name := c.backend.Name()
	start := time.Now()

	art, err := c.generate(ctx, req)

	duration := time.Since(start)
	metrics.RecordProviderRequest(name, outcome(err), duration)

	if err != nil {
		slog.WarnContext(ctx, "provider call failed",
			slog.String("provider", name),
			slog.String("kind", string(req.Kind)),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return entity.Artifact{}, err
	}

	slog.DebugContext(ctx, "provider call completed",
		slog.String("provider", name),
		slog.String("kind", string(req.Kind)),
		slog.Duration("duration", duration))
	return art, nil
}

func (c *Client) generate(ctx context.Context, req entity.GenerationRequest) (entity.Artifact, error) {
	name := c.backend.Name()

	if err := req.Validate(); err != nil {
		return entity.Artifact{}, entity.NewProviderError(name, entity.ErrProviderRejected, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return entity.Artifact{}, classify(name, ctx.Err())
		}
		// Wait fails early when the deadline cannot be met
		return entity.Artifact{}, entity.NewProviderError(name, entity.ErrProviderTimeout, err)
	}

	var art entity.Artifact
	err := c.breaker.Call(func() error {
		var err error
		if art, err = c.backend.Generate(ctx, req); err != nil {
			return classify(name, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			slog.WarnContext(ctx, "provider circuit breaker open, request rejected",
				slog.String("provider", name),
				slog.String("state", c.breaker.State().String()))
			return entity.Artifact{}, entity.NewProviderError(name, entity.ErrProviderUnavailable, err)
		}
		return entity.Artifact{}, err
	}

	art.Kind = req.Kind
	if art.Provider == "" {
		art.Provider = name
	}
	return art, nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch entity.ProviderErrorKind(err) {
	case entity.ErrProviderTimeout:
		return "timeout"
	case entity.ErrProviderRejected:
		return "rejected"
	default:
		return "unavailable"
	}
}
