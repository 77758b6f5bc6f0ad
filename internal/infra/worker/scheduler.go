package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is work dispatched by the scheduler. The context is canceled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Triggers reported in logs and metrics.
const (
	TriggerStartup = "startup"
	TriggerCron    = "cron"
	TriggerRandom  = "random"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextFire returns the first firing of spec strictly after now, evaluated in
// loc. A nil loc means UTC.
func NextFire(spec string, loc *time.Location, now time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return sched.Next(now.In(loc)), nil
}

type scheduledJob struct {
	name      string
	spec      string
	onStartup bool
	job       Job
}

// Scheduler fires jobs on cron expressions in one timezone and, optionally,
// once at startup. Every firing runs the job on its own goroutine so the
// cron loop never waits for a job.
type Scheduler struct {
	loc     *time.Location
	logger  *slog.Logger
	metrics *WorkerMetrics

	cron *cron.Cron

	mu      sync.Mutex
	jobs    []scheduledJob
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler evaluating schedules in loc. metrics may
// be nil.
func NewScheduler(loc *time.Location, logger *slog.Logger, metrics *WorkerMetrics) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		loc:     loc,
		logger:  logger,
		metrics: metrics,
		cron:    cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
	}
}

// Location returns the scheduler's timezone.
func (s *Scheduler) Location() *time.Location { return s.loc }

// AddJob registers job under name on spec. With onStartup the job is also
// fired once by Start. Jobs must be added before Start.
func (s *Scheduler) AddJob(name, spec string, onStartup bool, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("add job %s: scheduler already started", name)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Dispatch(TriggerCron, name, job) }); err != nil {
		return fmt.Errorf("add job %s: invalid schedule %q: %w", name, spec, err)
	}
	s.jobs = append(s.jobs, scheduledJob{name: name, spec: spec, onStartup: onStartup, job: job})
	return nil
}

// Start launches the cron loop and the startup firings. It returns at once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	jobs := append([]scheduledJob(nil), s.jobs...)
	s.mu.Unlock()

	s.cron.Start()

	now := time.Now()
	for _, j := range jobs {
		next, _ := NextFire(j.spec, s.loc, now)
		s.logger.Info("job scheduled",
			slog.String("job", j.name),
			slog.String("schedule", j.spec),
			slog.String("timezone", s.loc.String()),
			slog.Time("next_fire", next),
			slog.Bool("on_startup", j.onStartup))
		if j.onStartup {
			s.Dispatch(TriggerStartup, j.name, j.job)
		}
	}
}

// Dispatch runs job asynchronously. It never blocks on the job, and a
// panicking job is recovered and logged.
func (s *Scheduler) Dispatch(trigger, name string, job Job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		s.logger.Warn("scheduler stopped, firing dropped",
			slog.String("job", name), slog.String("trigger", trigger))
		return
	}

	if s.metrics != nil {
		s.metrics.RecordFiring(trigger)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runJob(ctx, s.logger, s.metrics, trigger, name, job)
	}()
}

// Stop halts the cron loop, cancels running jobs and waits for them until ctx
// expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// runJob executes one job with panic recovery, logging and metrics.
func runJob(ctx context.Context, logger *slog.Logger, metrics *WorkerMetrics, trigger, name string, job Job) {
	start := time.Now()
	logger = logger.With(slog.String("job", name), slog.String("trigger", trigger))

	status := "success"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			logger.Error("job panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
		if metrics != nil {
			metrics.RecordJobRun(name, status)
			metrics.RecordJobDuration(name, time.Since(start))
			if status == "success" {
				metrics.RecordLastSuccess(name)
			}
		}
	}()

	if metrics != nil {
		metrics.RecordJobRun(name, "started")
	}
	logger.Info("job started")

	if err := job(ctx); err != nil {
		status = "failure"
		logger.Error("job failed",
			slog.Any("error", err),
			slog.Duration("duration", time.Since(start)))
		return
	}
	logger.Info("job completed", slog.Duration("duration", time.Since(start)))
}
