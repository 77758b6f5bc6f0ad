// Command api serves the read-only JSON API over the generated content.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hhttp "astrofeed/internal/handler/http"
	"astrofeed/internal/handler/http/content"
	"astrofeed/internal/infra/adapter/persistence/sqlite"
	"astrofeed/internal/infra/db"
	"astrofeed/internal/observability/logging"
	"astrofeed/internal/observability/tracing"
	"astrofeed/internal/pkg/config"
	"astrofeed/internal/repository"
	contentUC "astrofeed/internal/usecase/content"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := initDatastore(ctx, logger)
	defer func() {
		if err := handle.Close(); err != nil {
			logger.Error("failed to close datastore", slog.Any("error", err))
		}
	}()

	apiConfig := hhttp.LoadAPIConfigFromEnv(logger, config.NewConfigMetrics("api"))
	if err := apiConfig.Validate(); err != nil {
		logger.Error("invalid API configuration", slog.Any("error", err))
		os.Exit(1)
	}

	version := getVersion()

	shutdownTracing := tracing.SetupFromEnv("astrofeed-api", version, logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer provider shutdown failed", slog.Any("error", err))
		}
	}()
	handler := setupRouter(logger, handle, apiConfig, version)

	srv := &http.Server{
		Addr:              apiConfig.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", apiConfig.Addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// getVersion returns VERSION or "dev".
func getVersion() string {
	return config.LoadEnvString("VERSION", "dev")
}

// initDatastore opens the database and applies migrations. Seeding is left to
// the worker.
func initDatastore(ctx context.Context, logger *slog.Logger) *db.Handle {
	cfg, warnings := db.LoadConfigFromEnv()
	for _, w := range warnings {
		logger.Warn("configuration fallback applied",
			slog.String("component", "datastore"),
			slog.String("warning", w))
	}

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
	return handle
}

// setupRouter wires the read use cases into the router.
func setupRouter(logger *slog.Logger, handle *db.Handle, cfg hhttp.APIConfig, version string) http.Handler {
	repos := sqlite.NewSet(handle, repository.NewDefaultRegistry())
	svc := &contentUC.Service{
		Writers:    repos.Writers,
		Articles:   repos.Articles,
		Horoscopes: repos.Horoscopes,
	}

	var limiter *hhttp.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = hhttp.NewRateLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst, cfg.TrustProxy)
		logger.Info("rate limiting enabled",
			slog.Int("rps", cfg.RateLimitRPS),
			slog.Int("burst", cfg.RateLimitBurst),
			slog.Bool("trust_proxy", cfg.TrustProxy))
	} else {
		logger.Info("rate limiting disabled")
	}

	return hhttp.NewRouter(hhttp.RouterDeps{
		Content:        svc,
		Store:          handle,
		Version:        version,
		Clock:          content.Clock{Now: time.Now, Location: cfg.Location()},
		Logger:         logger,
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})
}
