package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgconfig "astrofeed/internal/pkg/config"
)

const defaultMetricsPort = 9090

// statusResponse is the body of GET /status.
type statusResponse struct {
	Cycles []cycleStatus `json:"cycles"`
}

// metricsMux serves:
//   - GET /metrics: Prometheus scrape endpoint
//   - GET /status: last finished cycle per generation job
func metricsMux(board *statusBoard) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statusResponse{Cycles: board.snapshot(time.Now())})
	})
	return mux
}

// startMetricsServer serves metricsMux on METRICS_PORT in the background and
// shuts it down when ctx is canceled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, board *statusBoard, metrics *pkgconfig.ConfigMetrics) *http.Server {
	port := metricsPort(logger, metrics)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           metricsMux(board),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return
		}
		logger.Info("metrics server stopped")
	}()

	return server
}

// metricsPort reads METRICS_PORT, falling back to 9090.
func metricsPort(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) int {
	res := pkgconfig.LoadEnvInt("METRICS_PORT", defaultMetricsPort, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 65535)
	})
	for _, w := range res.Warnings {
		logger.Warn("metrics configuration fallback", slog.String("warning", w))
	}
	if metrics != nil {
		metrics.Apply("metrics_port", res.Outcome)
	}
	return res.Value
}
