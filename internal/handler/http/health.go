package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"astrofeed/internal/handler/http/respond"
)

// Pool hands out the datastore connection pool. *db.Handle implements it.
type Pool interface {
	DB(ctx context.Context) (*sql.DB, error)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"` // healthy, degraded or unhealthy
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the outcome of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthHandler reports datastore reachability and pool pressure.
// A degraded pool still answers 200.
type HealthHandler struct {
	Store   Pool
	Version string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	check := h.checkDatabase(ctx)
	status, code := check.Status, http.StatusOK
	if status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]CheckStatus{"database": check},
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.Store == nil {
		return CheckStatus{Status: statusUnhealthy, Message: "not configured"}
	}
	pool, err := h.Store.DB(ctx)
	if err == nil {
		err = pool.PingContext(ctx)
	}
	if err != nil {
		slog.Default().Warn("health: datastore check failed", slog.String("error", respond.SanitizeError(err)))
		return CheckStatus{Status: statusUnhealthy, Message: "datastore unreachable"}
	}

	stats := pool.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{Status: statusDegraded, Message: "connection pool is unbounded", Details: details}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	// a single-connection pool is always fully used while serving this check
	if stats.MaxOpenConnections > 1 && utilization >= 80 {
		return CheckStatus{Status: statusDegraded, Message: "connection pool utilization above 80%", Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// ReadyHandler answers 200 once the datastore responds to a ping.
type ReadyHandler struct {
	Store Pool
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Store == nil {
		http.Error(w, "datastore not configured", http.StatusServiceUnavailable)
		return
	}
	pool, err := h.Store.DB(ctx)
	if err == nil {
		err = pool.PingContext(ctx)
	}
	if err != nil {
		http.Error(w, "datastore not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler always answers 200 while the process can serve requests.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("alive"))
}
