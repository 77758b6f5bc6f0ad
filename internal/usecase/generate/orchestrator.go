package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/observability/logging"
	"astrofeed/internal/observability/metrics"
	"astrofeed/internal/observability/tracing"
	"astrofeed/internal/resilience/retry"
	"astrofeed/internal/utils/text"
)

// Orchestrator runs generation cycles. At most one cycle per (kind, period)
// runs at a time; an overlapping call returns at once. Safe for concurrent use.
type Orchestrator struct {
	cfg Config

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	cfg.Retry.Retryable = isTransient

	return &Orchestrator{
		cfg:      cfg,
		inflight: make(map[string]struct{}),
	}
}

// isTransient reports whether a unit failure may succeed on another attempt.
func isTransient(err error) bool {
	kind := entity.ProviderErrorKind(err)
	return kind == entity.ErrProviderUnavailable || kind == entity.ErrProviderTimeout
}

type unitResult struct {
	draft Draft
	err   error
}

// RunCycle generates whatever plan is missing for period. It never returns an
// error; failures are reported in the summary.
func (o *Orchestrator) RunCycle(ctx context.Context, plan Plan, period entity.Period) (summary CycleSummary) {
	start := time.Now()
	kind := plan.Kind()
	summary = CycleSummary{Kind: kind, Period: period, State: StateIdle}

	logger := logging.WithCycle(logging.FromContext(ctx), kind.String(), period.String())

	release, ok := o.acquire(kind, period)
	if !ok {
		summary.Overlapped = true
		summary.Duration = time.Since(start)
		logger.Info("generation cycle already running, skipping", slog.Any("summary", summary))
		return summary
	}
	defer release()

	ctx, span := tracing.StartCycle(ctx, kind.String(), period.String())
	ctx = logging.WithLogger(ctx, logger)

	defer func() {
		summary.Duration = time.Since(start)
		metrics.RecordCycle(kind.String(), string(summary.State),
			summary.Generated, summary.Skipped, len(summary.Failed), summary.Duration)

		switch {
		case summary.State == StateFailed:
			logger.Error("generation cycle failed", slog.Any("summary", summary))
		case len(summary.Failed) > 0:
			logger.Warn("generation cycle completed with failures", slog.Any("summary", summary))
		default:
			logger.Info("generation cycle completed", slog.Any("summary", summary))
		}
		tracing.EndWithError(span, summary.Err())
	}()

	// Checking
	summary.State = StateChecking
	missing, skipped, err := o.check(ctx, plan, period)
	if err != nil {
		summary.State = StateFailed
		summary.Cause = fmt.Errorf("check %s %s: %w", kind, period, err)
		return summary
	}
	summary.Skipped = skipped
	if len(missing) == 0 {
		summary.State = StateDone
		return summary
	}

	// Generating
	summary.State = StateGenerating
	results := o.generateAll(ctx, plan, period, missing)

	// Normalizing
	summary.State = StateNormalizing
	for i := range results {
		if results[i].err == nil {
			results[i].draft = normalize(results[i].draft)
		}
	}

	// Persisting, sequential in unit order
	summary.State = StatePersisting
	for i, unit := range missing {
		res := results[i]
		if res.err != nil {
			summary.Failed = append(summary.Failed, o.failure(ctx, unit, "generate", res.err))
			continue
		}
		if err := plan.Persist(ctx, period, res.draft); err != nil {
			summary.Failed = append(summary.Failed, o.failure(ctx, unit, "persist", err))
			continue
		}
		summary.Generated++
	}

	if summary.Generated == 0 {
		summary.State = StateFailed
	} else {
		summary.State = StateDone
	}
	return summary
}

// check returns the missing units in plan order and the number already stored.
func (o *Orchestrator) check(ctx context.Context, plan Plan, period entity.Period) ([]string, int, error) {
	units, err := plan.Units(ctx, period)
	if err != nil {
		return nil, 0, fmt.Errorf("list units: %w", err)
	}
	existing, err := plan.Existing(ctx, period)
	switch {
	case errors.Is(err, entity.ErrStorageUnavailable):
		return nil, 0, fmt.Errorf("load existing: %w", err)
	case err != nil:
		// persisting is an upsert, so regenerating a stored unit is safe
		logging.FromContext(ctx).Warn("existing units not loaded, generating every unit",
			slog.Int("units", len(units)), slog.Any("error", err))
		existing = nil
	}

	missing := make([]string, 0, len(units))
	skipped := 0
	for _, u := range units {
		if existing[u] {
			skipped++
			continue
		}
		missing = append(missing, u)
	}
	return missing, skipped, nil
}

// generateAll runs the missing units with bounded concurrency. Failures never
// cancel sibling units.
func (o *Orchestrator) generateAll(ctx context.Context, plan Plan, period entity.Period, units []string) []unitResult {
	results := make([]unitResult, len(units))

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)

	for i, unit := range units {
		g.Go(func() error {
			results[i] = o.generateUnit(ctx, plan, period, unit)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) generateUnit(ctx context.Context, plan Plan, period entity.Period, unit string) (res unitResult) {
	ctx, span := tracing.StartUnit(ctx, unit)
	defer func() {
		if r := recover(); r != nil {
			res = unitResult{err: fmt.Errorf("unit %s panicked: %v", unit, r)}
		}
		tracing.EndWithError(span, res.err)
	}()

	if o.cfg.UnitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.UnitTimeout)
		defer cancel()
	}

	policy := o.cfg.Retry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logging.FromContext(ctx).Warn("generation unit failed, retrying",
			slog.String("unit", unit),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("reason", reason(err)))
	}

	var draft Draft
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		d, err := plan.Generate(ctx, period, unit)
		if err != nil {
			return err
		}
		draft = d
		return nil
	})
	if err != nil {
		return unitResult{err: err}
	}

	draft.Unit = unit
	return unitResult{draft: draft}
}

func (o *Orchestrator) failure(ctx context.Context, unit, stage string, err error) UnitFailure {
	f := UnitFailure{Unit: unit, Stage: stage, Reason: reason(err), Err: err}
	logging.FromContext(ctx).Warn("generation unit failed",
		slog.String("unit", unit),
		slog.String("stage", stage),
		slog.String("reason", f.Reason),
		slog.Any("error", err))
	return f
}

// normalize applies paragraph normalization to generated text.
func normalize(d Draft) Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Text = text.Document(d.Text)
	return d
}

func (o *Orchestrator) acquire(kind entity.Kind, period entity.Period) (func(), bool) {
	key := kind.String() + "/" + period.String()

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inflight[key]; busy {
		return nil, false
	}
	o.inflight[key] = struct{}{}

	return func() {
		o.mu.Lock()
		delete(o.inflight, key)
		o.mu.Unlock()
	}, true
}
