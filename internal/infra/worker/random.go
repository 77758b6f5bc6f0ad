package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"time"
)

// RandomTicker calls a function forever with a uniformly random pause in
// [Min, Max] between calls. The next pause is drawn only after the call
// returns, so a slow call delays the schedule. There is no backoff and the
// ticker stops only when its context is canceled.
type RandomTicker struct {
	Min, Max time.Duration

	name    string
	fn      func(ctx context.Context)
	logger  *slog.Logger
	metrics *WorkerMetrics

	randN func(n int64) int64
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu      sync.Mutex
	firings int64
	total   time.Duration
	last    time.Time
}

// TickerOption customizes a RandomTicker.
type TickerOption func(*RandomTicker)

// WithTickerLogger sets the logger. The running average is logged at debug level.
func WithTickerLogger(l *slog.Logger) TickerOption {
	return func(t *RandomTicker) { t.logger = l }
}

// WithTickerMetrics publishes firings and the running average.
func WithTickerMetrics(m *WorkerMetrics) TickerOption {
	return func(t *RandomTicker) { t.metrics = m }
}

// WithRand replaces the source of randomness. randN must return a value in [0, n).
func WithRand(randN func(n int64) int64) TickerOption {
	return func(t *RandomTicker) { t.randN = randN }
}

// WithSleep replaces the pause between calls.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) TickerOption {
	return func(t *RandomTicker) { t.sleep = sleep }
}

// WithNow replaces the clock used to measure intervals.
func WithNow(now func() time.Time) TickerOption {
	return func(t *RandomTicker) { t.now = now }
}

// NewRandomTicker creates a ticker named name. min must be positive and not
// above max.
func NewRandomTicker(name string, min, max time.Duration, fn func(ctx context.Context), opts ...TickerOption) (*RandomTicker, error) {
	if min <= 0 {
		return nil, fmt.Errorf("random ticker %s: min interval must be positive, got %v", name, min)
	}
	if max < min {
		return nil, fmt.Errorf("random ticker %s: max interval %v is below min %v", name, max, min)
	}

	t := &RandomTicker{
		Min:    min,
		Max:    max,
		name:   name,
		fn:     fn,
		logger: slog.Default(),
		randN:  rand.Int64N,
		sleep:  sleepContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Start runs the ticker on its own goroutine.
func (t *RandomTicker) Start(ctx context.Context) {
	go t.Run(ctx)
}

// Run blocks, calling fn after each random pause, until ctx is canceled.
func (t *RandomTicker) Run(ctx context.Context) {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()

	for ctx.Err() == nil {
		delay := t.Next()
		t.logger.Debug("random ticker armed",
			slog.String("ticker", t.name),
			slog.Duration("delay", delay))

		if err := t.sleep(ctx, delay); err != nil {
			return
		}
		t.observe()
		t.fire(ctx)
	}
}

// Next draws a delay uniformly from [Min, Max].
func (t *RandomTicker) Next() time.Duration {
	span := int64(t.Max - t.Min)
	return t.Min + time.Duration(t.randN(span+1))
}

// Firings returns how many times fn has been called.
func (t *RandomTicker) Firings() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.firings
}

// Average returns the mean observed interval between firings, measured from
// the end of one call to the start of the next.
func (t *RandomTicker) Average() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.firings == 0 {
		return 0
	}
	return t.total / time.Duration(t.firings)
}

func (t *RandomTicker) observe() {
	now := t.now()

	t.mu.Lock()
	t.total += now.Sub(t.last)
	t.firings++
	avg := t.total / time.Duration(t.firings)
	n := t.firings
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.RecordFiring(TriggerRandom)
		t.metrics.SetAverageInterval(avg)
	}
	t.logger.Debug("random ticker fired",
		slog.String("ticker", t.name),
		slog.Int64("firings", n),
		slog.Duration("average_interval", avg))
}

func (t *RandomTicker) fire(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("random ticker callback panicked",
				slog.String("ticker", t.name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
		t.mu.Lock()
		t.last = t.now()
		t.mu.Unlock()
	}()
	t.fn(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
