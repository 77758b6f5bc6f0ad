// Package housekeeping runs the periodic maintenance the worker fires on its
// randomized cadence: it refreshes the stored-entity and connection-pool
// gauges and checkpoints the SQLite write-ahead log.
package housekeeping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/infra/db"
	"astrofeed/internal/observability/logging"
	"astrofeed/internal/observability/metrics"
	"astrofeed/internal/repository"
)

// Checkpoint is the result row of PRAGMA wal_checkpoint.
type Checkpoint struct {
	Busy         bool
	LogFrames    int
	Checkpointed int
}

// Report summarizes one housekeeping run.
type Report struct {
	Counts     map[entity.Kind]int
	Checkpoint Checkpoint
	Duration   time.Duration
}

// queryer is the part of *sql.DB housekeeping needs.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Service performs housekeeping over every registered kind.
type Service struct {
	handle   *db.Handle
	counters map[entity.Kind]repository.Counter
}

// NewService creates a Service. counters holds one repository per kind; the
// handle is used only for pool stats and the checkpoint.
func NewService(h *db.Handle, counters map[entity.Kind]repository.Counter) *Service {
	return &Service{handle: h, counters: counters}
}

// Run counts each kind, publishes the gauges and checkpoints the WAL. A
// failing count does not stop the others; all failures are joined.
func (s *Service) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)
	report := Report{Counts: make(map[entity.Kind]int)}

	pool, err := s.handle.DB(ctx)
	if err != nil {
		return report, fmt.Errorf("housekeeping: %w", err)
	}

	var errs []error
	for _, kind := range slices.Sorted(maps.Keys(s.counters)) {
		n, err := s.counters[kind].Count(ctx, repository.Filter{})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report.Counts[kind] = n
		metrics.SetEntityCount(kind.String(), n)
	}

	metrics.RecordDBStats(pool.Stats())

	cp, err := s.checkpoint(ctx, pool)
	if err != nil {
		errs = append(errs, err)
	}
	report.Checkpoint = cp
	report.Duration = time.Since(start)

	attrs := []any{slog.Duration("duration", report.Duration), slog.Bool("checkpoint_busy", cp.Busy)}
	for kind, n := range report.Counts {
		attrs = append(attrs, slog.Int(kind.String()+"_count", n))
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		logger.Warn("housekeeping finished with errors", append(attrs, slog.Any("error", err))...)
		return report, err
	}
	logger.Info("housekeeping finished", attrs...)
	return report, nil
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := s.handle.OpTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// checkpoint runs a PASSIVE checkpoint: it never blocks writers and reports
// busy instead of waiting.
func (s *Service) checkpoint(ctx context.Context, pool queryer) (Checkpoint, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var busy int
	var cp Checkpoint
	row := pool.QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)")
	if err := row.Scan(&busy, &cp.LogFrames, &cp.Checkpointed); err != nil {
		return Checkpoint{}, fmt.Errorf("wal checkpoint: %w", classify(err))
	}
	cp.Busy = busy != 0
	return cp, nil
}

// classify marks errors that mean the datastore itself is unusable.
func classify(err error) error {
	if db.IsUnavailable(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", entity.ErrStorageUnavailable, err)
	}
	return err
}
