// Command generate runs generation cycles once and exits. It fills in missing
// horoscopes and articles for a range of dates.
//
// Usage: astrofeed-generate [-kind horoscopes|articles|all] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"astrofeed/internal/config"
	"astrofeed/internal/domain/entity"
	"astrofeed/internal/handler/http/respond"
	"astrofeed/internal/infra/adapter/persistence/sqlite"
	"astrofeed/internal/infra/db"
	"astrofeed/internal/infra/provider"
	"astrofeed/internal/observability/logging"
	pkgconfig "astrofeed/internal/pkg/config"
	"astrofeed/internal/repository"
	"astrofeed/internal/usecase/generate"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	tz := pkgconfig.LoadEnvWithFallback("WORKER_TIMEZONE", "UTC", pkgconfig.ValidateTimezone)
	loc, err := time.LoadLocation(tz.Value)
	if err != nil {
		loc = time.UTC
	}

	opts, err := parseArgs(os.Args[1:], entity.PeriodOf(time.Now(), loc), os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConfig, warnings := db.LoadConfigFromEnv()
	logWarnings(logger, "datastore", warnings)
	handle := db.NewHandle(dbConfig)
	defer func() {
		if err := handle.Close(); err != nil {
			logger.Error("failed to close datastore", slog.Any("error", err))
		}
	}()

	sqlDB, err := handle.DB(ctx)
	if err != nil {
		fail(logger, "failed to open datastore", err)
	}
	if err := db.MigrateUp(ctx, sqlDB); err != nil {
		fail(logger, "failed to migrate datastore", err)
	}
	if err := db.Seed(ctx, sqlDB); err != nil {
		fail(logger, "failed to seed datastore", err)
	}

	plans, err := buildPlans(logger, handle, opts.Kinds)
	if err != nil {
		fail(logger, "failed to build generation plans", err)
	}

	genConfig, warnings := generate.LoadConfigFromEnv()
	logWarnings(logger, "generation", warnings)

	days := periods(opts.From, opts.To)
	logger.Info("backfill starting",
		slog.String("from", opts.From.String()),
		slog.String("to", opts.To.String()),
		slog.Int("plans", len(plans)))

	if err := backfill(ctx, generate.NewOrchestrator(genConfig), plans, days, logger); err != nil {
		fail(logger, "backfill incomplete", err)
	}
}

// buildPlans creates the providers and the plans for kinds.
func buildPlans(logger *slog.Logger, handle *db.Handle, kinds []entity.Kind) ([]generate.Plan, error) {
	providerConfig, warnings := provider.LoadConfigFromEnv()
	logWarnings(logger, "provider", warnings)

	text, err := provider.NewText(providerConfig)
	if err != nil {
		return nil, fmt.Errorf("text provider: %w", err)
	}

	promptsConfig, err := config.LoadPromptsFromEnv()
	if err != nil {
		return nil, err
	}
	prompts, err := generate.NewPrompts(promptsConfig)
	if err != nil {
		return nil, err
	}

	repos := sqlite.NewSet(handle, repository.NewDefaultRegistry())
	plans := make([]generate.Plan, 0, len(kinds))
	for _, kind := range kinds {
		switch kind {
		case entity.KindHoroscope:
			plans = append(plans, generate.NewHoroscopePlan(
				repos.Horoscopes, text, prompts))
		case entity.KindArticle:
			var articleOpts []generate.ArticlePlanOption
			image, err := provider.NewImage(providerConfig)
			switch {
			case errors.Is(err, provider.ErrImageDisabled):
			case err != nil:
				return nil, fmt.Errorf("image provider: %w", err)
			default:
				articleOpts = append(articleOpts, generate.WithImages(image, entity.ImageWEBP))
			}
			plans = append(plans, generate.NewArticlePlan(
				repos.Writers, repos.Articles, text, prompts, articleOpts...))
		}
	}
	return plans, nil
}

func logWarnings(logger *slog.Logger, component string, warnings []string) {
	for _, w := range warnings {
		logger.Warn("configuration fallback applied",
			slog.String("component", component),
			slog.String("warning", w))
	}
}

func fail(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("error", respond.SanitizeError(err)))
	os.Exit(1)
}
