package generate

import (
	"log/slog"
	"time"

	"astrofeed/internal/domain/entity"
)

// State is a generation cycle state.
type State string

const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateGenerating  State = "generating"
	StateNormalizing State = "normalizing"
	StatePersisting  State = "persisting"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// CycleSummary is what RunCycle reports back to the scheduler.
type CycleSummary struct {
	Kind   entity.Kind
	Period entity.Period

	// Generated counts units persisted by this cycle.
	Generated int
	// Skipped counts units already stored before the cycle started.
	Skipped int
	Failed  []UnitFailure

	// State is StateDone or StateFailed, or StateIdle for an overlapped call.
	State State
	// Overlapped is set when another cycle for the same kind and period was
	// already running and this call did nothing.
	Overlapped bool

	// Cause is the error that aborted the cycle during checking.
	Cause error

	Duration time.Duration
}

// Err returns Cause when the cycle aborted, a *PartialGenerationFailure when
// any unit failed, and nil otherwise.
func (s CycleSummary) Err() error {
	if s.Cause != nil {
		return s.Cause
	}
	if len(s.Failed) == 0 {
		return nil
	}
	return &PartialGenerationFailure{
		Kind:      s.Kind,
		Period:    s.Period,
		Attempted: s.Generated + len(s.Failed),
		Failed:    s.Failed,
	}
}

// LogValue implements slog.LogValuer.
func (s CycleSummary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", s.Kind.String()),
		slog.String("period", s.Period.String()),
		slog.String("state", string(s.State)),
		slog.Int("generated", s.Generated),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", len(s.Failed)),
		slog.Duration("duration", s.Duration),
	}
	if s.Overlapped {
		attrs = append(attrs, slog.Bool("overlapped", true))
	}
	if err := s.Err(); err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	return slog.GroupValue(attrs...)
}
