// Command worker runs the scheduled generation pipeline: daily horoscopes and
// daily articles on a cron cadence, plus randomized datastore housekeeping.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"astrofeed/internal/config"
	"astrofeed/internal/domain/entity"
	"astrofeed/internal/infra/adapter/persistence/sqlite"
	"astrofeed/internal/infra/db"
	"astrofeed/internal/infra/provider"
	workerPkg "astrofeed/internal/infra/worker"
	"astrofeed/internal/observability/logging"
	"astrofeed/internal/observability/tracing"
	pkgconfig "astrofeed/internal/pkg/config"
	"astrofeed/internal/repository"
	"astrofeed/internal/usecase/generate"
	"astrofeed/internal/usecase/housekeeping"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	shutdownTracing := tracing.SetupFromEnv("astrofeed-worker", pkgconfig.LoadEnvString("VERSION", "dev"), logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer provider shutdown failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle := initDatastore(ctx, logger)
	defer func() {
		if err := handle.Close(); err != nil {
			logger.Error("failed to close datastore", slog.Any("error", err))
		}
	}()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Bool("run_on_startup", workerConfig.RunOnStartup),
		slog.Duration("cycle_timeout", workerConfig.CycleTimeout),
		slog.Duration("housekeeping_min", workerConfig.HousekeepingMinInterval),
		slog.Duration("housekeeping_max", workerConfig.HousekeepingMaxInterval),
		slog.Int("health_port", workerConfig.HealthPort))

	repos := sqlite.NewSet(handle, repository.NewDefaultRegistry())
	horoscopes, articles := setupPlans(logger, repos)

	genConfig, warnings := generate.LoadConfigFromEnv()
	logWarnings(logger, "generation", warnings)
	orchestrator := generate.NewOrchestrator(genConfig)

	board := newStatusBoard()
	startMetricsServer(ctx, logger, board, workerMetrics.ConfigMetrics)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	healthServer.AddCheck("datastore", func(ctx context.Context) error {
		sqlDB, err := handle.DB(ctx)
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	go func() {
		if err := healthServer.Serve(ctx); err != nil {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	loc := workerConfig.Location()
	scheduler := workerPkg.NewScheduler(loc, logger, workerMetrics)
	for name, plan := range map[string]generate.Plan{"horoscopes": horoscopes, "articles": articles} {
		job := cycleJob(name, orchestrator, plan, loc, workerConfig.CycleTimeout, board, logger, time.Now)
		if err := scheduler.AddJob(name, workerConfig.CronSchedule, workerConfig.RunOnStartup, job); err != nil {
			logger.Error("failed to add job", slog.String("job", name), slog.Any("error", err))
			os.Exit(1)
		}
	}

	hk := housekeeping.NewService(handle, repos.Counters())
	ticker, err := workerPkg.NewRandomTicker("housekeeping",
		workerConfig.HousekeepingMinInterval, workerConfig.HousekeepingMaxInterval,
		housekeepingTask(hk, logger),
		workerPkg.WithTickerLogger(logger),
		workerPkg.WithTickerMetrics(workerMetrics))
	if err != nil {
		logger.Error("failed to create housekeeping ticker", slog.Any("error", err))
		os.Exit(1)
	}

	scheduler.Start(ctx)
	ticker.Start(ctx)

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", workerConfig.CronSchedule),
		slog.String("timezone", loc.String()))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler did not stop cleanly", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// initDatastore opens the database, applies migrations and seeds the writers.
func initDatastore(ctx context.Context, logger *slog.Logger) *db.Handle {
	cfg, warnings := db.LoadConfigFromEnv()
	logWarnings(logger, "datastore", warnings)

	handle := db.NewHandle(cfg)
	sqlDB, err := handle.DB(ctx)
	if err != nil {
		logger.Error("failed to open datastore", slog.String("path", cfg.Path), slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, sqlDB); err != nil {
		logger.Error("failed to migrate datastore", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.Seed(ctx, sqlDB); err != nil {
		logger.Error("failed to seed datastore", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("datastore ready", slog.String("path", cfg.Path))
	return handle
}

// setupPlans builds the providers and the two generation plans.
func setupPlans(logger *slog.Logger, repos sqlite.Set) (*generate.HoroscopePlan, *generate.ArticlePlan) {
	providerConfig, warnings := provider.LoadConfigFromEnv()
	logWarnings(logger, "provider", warnings)

	text, err := provider.NewText(providerConfig)
	if err != nil {
		logger.Error("failed to create text provider", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("text provider initialized", slog.String("provider", text.Name()))

	var articleOpts []generate.ArticlePlanOption
	image, err := provider.NewImage(providerConfig)
	switch {
	case errors.Is(err, provider.ErrImageDisabled):
		logger.Info("image provider disabled")
	case err != nil:
		logger.Error("failed to create image provider", slog.Any("error", err))
		os.Exit(1)
	default:
		articleOpts = append(articleOpts, generate.WithImages(image, entity.ImageWEBP))
		logger.Info("image provider initialized", slog.String("provider", image.Name()))
	}

	promptsConfig, err := config.LoadPromptsFromEnv()
	if err != nil {
		logger.Error("failed to load prompts", slog.Any("error", err))
		os.Exit(1)
	}
	prompts, err := generate.NewPrompts(promptsConfig)
	if err != nil {
		logger.Error("failed to parse prompts", slog.Any("error", err))
		os.Exit(1)
	}

	return generate.NewHoroscopePlan(repos.Horoscopes, text, prompts),
		generate.NewArticlePlan(repos.Writers, repos.Articles, text, prompts, articleOpts...)
}

func logWarnings(logger *slog.Logger, component string, warnings []string) {
	for _, w := range warnings {
		logger.Warn("configuration fallback applied",
			slog.String("component", component),
			slog.String("warning", w))
	}
}
