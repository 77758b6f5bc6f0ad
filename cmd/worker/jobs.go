package main

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/handler/http/respond"
	workerPkg "astrofeed/internal/infra/worker"
	"astrofeed/internal/observability/logging"
	"astrofeed/internal/observability/slo"
	"astrofeed/internal/usecase/generate"
	"astrofeed/internal/usecase/housekeeping"
)

// cycleRunner is the part of the orchestrator the jobs need.
type cycleRunner interface {
	RunCycle(ctx context.Context, plan generate.Plan, period entity.Period) generate.CycleSummary
}

// housekeeper is the part of the housekeeping service the ticker needs.
type housekeeper interface {
	Run(ctx context.Context) (housekeeping.Report, error)
}

// cycleStatus is the last finished cycle of one job, as served on /status.
type cycleStatus struct {
	Job        string    `json:"job"`
	Kind       string    `json:"kind"`
	Period     string    `json:"period"`
	State      string    `json:"state"`
	Generated  int       `json:"generated"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Overlapped bool      `json:"overlapped,omitempty"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`

	// LastComplete is when a cycle of this job last left its period with
	// every unit stored; Stale is set once that is older than the freshness
	// target.
	LastComplete *time.Time `json:"last_complete,omitempty"`
	Stale        bool       `json:"stale"`
}

// statusBoard keeps the last cycle per job.
type statusBoard struct {
	mu       sync.RWMutex
	last     map[string]cycleStatus
	complete map[string]time.Time
}

func newStatusBoard() *statusBoard {
	return &statusBoard{
		last:     make(map[string]cycleStatus),
		complete: make(map[string]time.Time),
	}
}

func (b *statusBoard) record(job string, s generate.CycleSummary, at time.Time) {
	st := cycleStatus{
		Job:        job,
		Kind:       s.Kind.String(),
		Period:     s.Period.String(),
		State:      string(s.State),
		Generated:  s.Generated,
		Skipped:    s.Skipped,
		Failed:     len(s.Failed),
		Overlapped: s.Overlapped,
		FinishedAt: at,
		DurationMS: s.Duration.Milliseconds(),
	}
	if err := s.Err(); err != nil {
		st.Error = respond.SanitizeError(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[job] = st

	// overlapped and aborted cycles say nothing about the period's content
	if s.Overlapped || s.Cause != nil {
		return
	}
	stored := s.Generated + s.Skipped
	slo.RecordCycle(s.Kind.String(), stored, stored+len(s.Failed), at)
	if len(s.Failed) == 0 {
		b.complete[job] = at
	}
}

// snapshot returns the recorded cycles ordered by job name, with staleness
// evaluated at now.
func (b *statusBoard) snapshot(now time.Time) []cycleStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]cycleStatus, 0, len(b.last))
	for job, st := range b.last {
		at, ok := b.complete[job]
		if ok {
			st.LastComplete = &at
		}
		st.Stale = slo.Stale(at, now)
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

// cycleJob builds the scheduler job that runs plan for the current calendar
// day in loc. A partial or aborted cycle is returned as the job error so the
// scheduler counts it as a failure.
func cycleJob(
	name string,
	runner cycleRunner,
	plan generate.Plan,
	loc *time.Location,
	timeout time.Duration,
	board *statusBoard,
	logger *slog.Logger,
	now func() time.Time,
) workerPkg.Job {
	return func(ctx context.Context) error {
		period := entity.PeriodOf(now(), loc)
		log := logging.WithCycle(logger, plan.Kind().String(), period.String())

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ctx = logging.WithLogger(ctx, log)

		summary := runner.RunCycle(ctx, plan, period)
		board.record(name, summary, now())

		err := summary.Err()
		switch {
		case summary.Overlapped:
			log.Info("cycle skipped, already running")
		case err != nil:
			log.Error("cycle finished with failures",
				slog.Any("summary", summary),
				slog.String("error", respond.SanitizeError(err)))
		default:
			log.Info("cycle finished", slog.Any("summary", summary))
		}
		return err
	}
}

// housekeepingTask adapts the housekeeping service to the random ticker.
// Failures are logged and never stop the ticker.
func housekeepingTask(hk housekeeper, logger *slog.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		report, err := hk.Run(ctx)
		if err != nil {
			logger.Warn("housekeeping failed", slog.String("error", respond.SanitizeError(err)))
		}

		attrs := []any{
			slog.Duration("duration", report.Duration),
			slog.Int("wal_frames", report.Checkpoint.LogFrames),
			slog.Int("wal_checkpointed", report.Checkpoint.Checkpointed),
		}
		for kind, n := range report.Counts {
			attrs = append(attrs, slog.Int(kind.String(), n))
		}
		logger.Debug("housekeeping done", attrs...)
	}
}
