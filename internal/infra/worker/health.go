package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	probeTimeout    = 2 * time.Second
	healthDrainTime = 5 * time.Second
)

// ReadinessCheck reports whether a dependency is usable. A nil error means ready.
type ReadinessCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check ReadinessCheck
}

// HealthServer answers the worker's orchestrator probes.
//
// GET /health is liveness and always answers 200 while the process serves.
// GET /health/ready answers 200 only after SetReady(true) and while every
// registered check passes.
type HealthServer struct {
	addr   string
	logger *slog.Logger
	ready  atomic.Bool
	checks []namedCheck
}

type probeBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewHealthServer returns a server for addr that reports not ready.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{addr: addr, logger: logger}
}

// AddCheck registers a readiness check. It must be called before Serve.
func (h *HealthServer) AddCheck(name string, check ReadinessCheck) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// SetReady flips the readiness flag.
func (h *HealthServer) SetReady(ready bool) {
	if h.ready.Swap(ready) != ready {
		h.logger.Info("worker readiness changed", slog.Bool("ready", ready))
	}
}

// Handler exposes the probe routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		h.reply(w, http.StatusOK, probeBody{Status: "alive"})
	})
	mux.HandleFunc("GET /health/ready", h.readiness)
	return mux
}

// Serve listens until ctx is done and then drains open probes. It returns nil
// after a clean shutdown.
func (h *HealthServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              h.addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      probeTimeout + time.Second,
		IdleTimeout:       time.Minute,
	}

	failed := make(chan error, 1)
	go func() {
		h.logger.Info("health server listening", slog.String("addr", h.addr))
		failed <- srv.ListenAndServe()
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), healthDrainTime)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return err
	}
	if err := <-failed; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *HealthServer) readiness(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		h.reply(w, http.StatusServiceUnavailable, probeBody{Status: "starting"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	results := make([]string, len(h.checks))
	var g errgroup.Group
	for i, c := range h.checks {
		g.Go(func() error {
			if err := c.check(ctx); err != nil {
				results[i] = err.Error()
				return err
			}
			results[i] = "ok"
			return nil
		})
	}
	failed := g.Wait() != nil

	body := probeBody{Status: "ready"}
	code := http.StatusOK
	if failed {
		body.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	if len(h.checks) > 0 {
		body.Checks = make(map[string]string, len(h.checks))
		for i, c := range h.checks {
			body.Checks[c.name] = results[i]
		}
	}
	h.reply(w, code, body)
}

func (h *HealthServer) reply(w http.ResponseWriter, code int, body probeBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("probe response not written", slog.Any("error", err))
	}
}
