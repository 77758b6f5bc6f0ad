package generate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/resilience/retry"
	"astrofeed/internal/usecase/generate"
)

/* ──────────────────────────── fake plan ──────────────────────────── */

type fakePlan struct {
	units []string

	mu          sync.Mutex
	stored      map[string]string
	attempts    map[string]int
	persisted   []string
	persistErrs map[string]error

	existingErr error
	generate    func(ctx context.Context, unit string, attempt int) (generate.Draft, error)

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakePlan(units ...string) *fakePlan {
	return &fakePlan{
		units:       units,
		stored:      map[string]string{},
		attempts:    map[string]int{},
		persistErrs: map[string]error{},
		generate: func(_ context.Context, unit string, _ int) (generate.Draft, error) {
			return generate.Draft{Text: "Content for " + unit + "."}, nil
		},
	}
}

func (p *fakePlan) Kind() entity.Kind { return entity.KindHoroscope }

func (p *fakePlan) Units(context.Context, entity.Period) ([]string, error) {
	return p.units, nil
}

func (p *fakePlan) Existing(context.Context, entity.Period) (map[string]bool, error) {
	if p.existingErr != nil {
		return nil, p.existingErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := map[string]bool{}
	for u := range p.stored {
		out[u] = true
	}
	return out, nil
}

func (p *fakePlan) Generate(ctx context.Context, _ entity.Period, unit string) (generate.Draft, error) {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		cur := p.maxInFlight.Load()
		if n <= cur || p.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	p.mu.Lock()
	p.attempts[unit]++
	attempt := p.attempts[unit]
	p.mu.Unlock()

	return p.generate(ctx, unit, attempt)
}

func (p *fakePlan) Persist(_ context.Context, _ entity.Period, d generate.Draft) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.persistErrs[d.Unit]; err != nil {
		return err
	}
	p.stored[d.Unit] = d.Text
	p.persisted = append(p.persisted, d.Unit)
	return nil
}

func (p *fakePlan) attemptsFor(unit string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts[unit]
}

func testConfig() generate.Config {
	return generate.Config{
		Concurrency: 3,
		UnitTimeout: 2 * time.Second,
		Retry: retry.Config{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     2 * time.Millisecond,
			Multiplier:   2,
		},
	}
}

func period(t *testing.T) entity.Period {
	t.Helper()
	p, err := entity.ParsePeriod("2026-10-17")
	require.NoError(t, err)
	return p
}

func rejected(unit string) error {
	return entity.NewProviderError("fake", entity.ErrProviderRejected, fmt.Errorf("policy refused %s", unit))
}

func unavailable() error {
	return entity.NewProviderError("fake", entity.ErrProviderUnavailable, errors.New("HTTP 503"))
}

/* ──────────────────────────── tests ──────────────────────────── */

func TestRunCycle_GeneratesOnlyMissingUnits(t *testing.T) {
	plan := newFakePlan("aries", "taurus", "gemini")
	plan.stored["taurus"] = "already here"
	plan.generate = func(_ context.Context, unit string, _ int) (generate.Draft, error) {
		return generate.Draft{Text: "First line.\nSecond line for " + unit + "."}, nil
	}

	o := generate.NewOrchestrator(testConfig())
	summary := o.RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, generate.StateDone, summary.State)
	assert.Equal(t, 2, summary.Generated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, summary.Failed)
	assert.NoError(t, summary.Err())
	assert.False(t, summary.Overlapped)
	assert.Equal(t, entity.KindHoroscope, summary.Kind)

	assert.Equal(t, int32(2), plan.calls.Load())
	assert.Equal(t, []string{"aries", "gemini"}, plan.persisted, "persisted in unit order")
	assert.Equal(t, "First line.\n\nSecond line for aries.\n", plan.stored["aries"], "text is normalized")
	assert.Equal(t, "already here", plan.stored["taurus"])
}

func TestRunCycle_CompletePeriodIsNoOp(t *testing.T) {
	plan := newFakePlan("aries", "taurus")
	plan.stored["aries"] = "a"
	plan.stored["taurus"] = "t"

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, generate.StateDone, summary.State)
	assert.Equal(t, 0, summary.Generated)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, int32(0), plan.calls.Load())
	assert.Empty(t, plan.persisted)
}

func TestRunCycle_CheckingFailureAbortsCycle(t *testing.T) {
	plan := newFakePlan("aries", "taurus")
	plan.existingErr = fmt.Errorf("List: %w: database is closed", entity.ErrStorageUnavailable)

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, generate.StateFailed, summary.State)
	assert.ErrorIs(t, summary.Cause, entity.ErrStorageUnavailable)
	assert.ErrorIs(t, summary.Err(), entity.ErrStorageUnavailable)
	assert.Equal(t, int32(0), plan.calls.Load())
}

func TestRunCycle_NonStorageCheckErrorGeneratesEveryUnit(t *testing.T) {
	plan := newFakePlan("aries", "taurus")
	plan.stored["aries"] = "Stored."
	plan.existingErr = fmt.Errorf("horoscope list: %w: unknown filter column", entity.ErrInvalidInput)

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, generate.StateDone, summary.State)
	assert.NoError(t, summary.Cause)
	assert.Equal(t, 2, summary.Generated)
	assert.Zero(t, summary.Skipped)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, []string{"aries", "taurus"}, plan.persisted)
}

func TestRunCycle_PartialFailure(t *testing.T) {
	plan := newFakePlan("aries", "taurus", "gemini")
	plan.generate = func(_ context.Context, unit string, _ int) (generate.Draft, error) {
		if unit == "taurus" {
			return generate.Draft{}, rejected(unit)
		}
		return generate.Draft{Text: "Fine."}, nil
	}

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, generate.StateDone, summary.State, "one success is enough for the cycle to succeed")
	assert.Equal(t, 2, summary.Generated)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "taurus", summary.Failed[0].Unit)
	assert.Equal(t, "generate", summary.Failed[0].Stage)
	assert.Equal(t, "provider rejected", summary.Failed[0].Reason)
	assert.Equal(t, 1, plan.attemptsFor("taurus"), "rejections are not retried")

	err := summary.Err()
	var pgf *generate.PartialGenerationFailure
	require.ErrorAs(t, err, &pgf)
	assert.Equal(t, 3, pgf.Attempted)
	assert.ErrorIs(t, err, entity.ErrProviderRejected)
	assert.Contains(t, err.Error(), "1 of 3 units failed (taurus)")
}

func TestRunCycle_NextCycleFillsOnlyFailedUnits(t *testing.T) {
	plan := newFakePlan("aries", "taurus", "gemini")
	fail := true
	plan.generate = func(_ context.Context, unit string, _ int) (generate.Draft, error) {
		if fail && unit == "gemini" {
			return generate.Draft{}, rejected(unit)
		}
		return generate.Draft{Text: "Fine."}, nil
	}
	o := generate.NewOrchestrator(testConfig())

	first := o.RunCycle(context.Background(), plan, period(t))
	require.Len(t, first.Failed, 1)

	fail = false
	plan.calls.Store(0)
	second := o.RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, generate.StateDone, second.State)
	assert.Equal(t, 1, second.Generated)
	assert.Equal(t, 2, second.Skipped)
	assert.Empty(t, second.Failed)
	assert.Equal(t, int32(1), plan.calls.Load())
}

func TestRunCycle_RetriesTransientFailures(t *testing.T) {
	plan := newFakePlan("aries", "taurus")
	plan.generate = func(_ context.Context, unit string, attempt int) (generate.Draft, error) {
		if unit == "taurus" && attempt == 1 {
			return generate.Draft{}, unavailable()
		}
		return generate.Draft{Text: "Fine."}, nil
	}

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, 2, summary.Generated)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, 2, plan.attemptsFor("taurus"))
}

func TestRunCycle_RetriesExhausted(t *testing.T) {
	plan := newFakePlan("aries")
	plan.generate = func(context.Context, string, int) (generate.Draft, error) {
		return generate.Draft{}, unavailable()
	}

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, generate.StateFailed, summary.State, "no unit succeeded")
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "provider unavailable", summary.Failed[0].Reason)
	assert.Equal(t, 3, plan.attemptsFor("aries"))
	assert.ErrorIs(t, summary.Err(), entity.ErrProviderUnavailable)
}

func TestRunCycle_UnitTimeout(t *testing.T) {
	plan := newFakePlan("aries", "taurus")
	plan.generate = func(ctx context.Context, unit string, _ int) (generate.Draft, error) {
		if unit == "aries" {
			<-ctx.Done()
			return generate.Draft{}, entity.NewProviderError("fake", entity.ErrProviderTimeout, ctx.Err())
		}
		return generate.Draft{Text: "Fine."}, nil
	}
	cfg := testConfig()
	cfg.UnitTimeout = 30 * time.Millisecond

	start := time.Now()
	summary := generate.NewOrchestrator(cfg).RunCycle(context.Background(), plan, period(t))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, summary.Generated)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "aries", summary.Failed[0].Unit)
	assert.Equal(t, "provider timeout", summary.Failed[0].Reason)
}

func TestRunCycle_PersistFailureIsRecorded(t *testing.T) {
	plan := newFakePlan("aries", "taurus")
	plan.persistErrs["taurus"] = fmt.Errorf("Upsert: %w: database is locked", entity.ErrStorageUnavailable)

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, 1, summary.Generated)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "persist", summary.Failed[0].Stage)
	assert.Equal(t, "storage unavailable", summary.Failed[0].Reason)
}

func TestRunCycle_PanickingUnitIsRecorded(t *testing.T) {
	plan := newFakePlan("aries", "taurus")
	plan.generate = func(_ context.Context, unit string, _ int) (generate.Draft, error) {
		if unit == "aries" {
			panic("boom")
		}
		return generate.Draft{Text: "Fine."}, nil
	}

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, 1, summary.Generated)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "aries", summary.Failed[0].Unit)
	assert.Contains(t, summary.Failed[0].Err.Error(), "panicked")
}

func TestRunCycle_ConcurrencyIsBounded(t *testing.T) {
	units := make([]string, 12)
	for i := range units {
		units[i] = fmt.Sprintf("u%02d", i)
	}
	plan := newFakePlan(units...)
	plan.generate = func(context.Context, string, int) (generate.Draft, error) {
		time.Sleep(15 * time.Millisecond)
		return generate.Draft{Text: "Fine."}, nil
	}

	summary := generate.NewOrchestrator(testConfig()).RunCycle(context.Background(), plan, period(t))

	assert.Equal(t, 12, summary.Generated)
	assert.LessOrEqual(t, plan.maxInFlight.Load(), int32(3))
	assert.Equal(t, units, plan.persisted)
}

func TestRunCycle_OverlappingCycleIsSkipped(t *testing.T) {
	plan := newFakePlan("aries")
	entered := make(chan struct{})
	release := make(chan struct{})
	plan.generate = func(context.Context, string, int) (generate.Draft, error) {
		close(entered)
		<-release
		return generate.Draft{Text: "Fine."}, nil
	}
	o := generate.NewOrchestrator(testConfig())
	day := period(t)

	done := make(chan generate.CycleSummary)
	go func() { done <- o.RunCycle(context.Background(), plan, day) }()
	<-entered

	overlapped := o.RunCycle(context.Background(), plan, day)
	assert.True(t, overlapped.Overlapped)
	assert.Equal(t, generate.StateIdle, overlapped.State)
	assert.Equal(t, 0, overlapped.Generated)
	assert.NoError(t, overlapped.Err())

	// another period is not blocked
	other := newFakePlan("aries")
	nextDay := o.RunCycle(context.Background(), other, day.AddDays(1))
	assert.False(t, nextDay.Overlapped)
	assert.Equal(t, 1, nextDay.Generated)

	close(release)
	first := <-done
	assert.Equal(t, 1, first.Generated)
	assert.Equal(t, int32(1), plan.calls.Load())

	// the lock is released afterwards
	again := o.RunCycle(context.Background(), plan, day)
	assert.False(t, again.Overlapped)
	assert.Equal(t, 1, again.Skipped)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GENERATION_CONCURRENCY", "5")
	t.Setenv("GENERATION_TIMEOUT", "90s")
	t.Setenv("PROVIDER_MAX_ATTEMPTS", "not-a-number")

	cfg, warnings := generate.LoadConfigFromEnv()

	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.UnitTimeout)
	assert.Equal(t, generate.DefaultConfig().Retry.MaxAttempts, cfg.Retry.MaxAttempts)
	assert.Len(t, warnings, 1)
}
