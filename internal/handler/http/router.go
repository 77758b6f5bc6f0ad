package http

import (
	"log/slog"
	"net/http"
	"time"

	"astrofeed/internal/handler/http/content"
	"astrofeed/internal/handler/http/pathutil"
	"astrofeed/internal/handler/http/requestid"
	"astrofeed/internal/observability/tracing"
)

// RouterDeps wires the read API.
type RouterDeps struct {
	Content content.Reader
	Store   Pool
	Version string
	Clock   content.Clock
	Logger  *slog.Logger

	// Limiter is optional; nil disables rate limiting.
	Limiter        *RateLimiter
	RequestTimeout time.Duration
}

// NewRouter returns the API handler with its middleware chain:
// request ID, tracing, recover, logging, metrics, rate limit, timeout.
// Probes and /metrics skip the rate limit and timeout.
func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := http.NewServeMux()
	content.Register(api, d.Content, d.Clock)

	var apiHandler http.Handler = api
	if d.RequestTimeout > 0 {
		apiHandler = Timeout(d.RequestTimeout)(apiHandler)
	}
	if d.Limiter != nil {
		apiHandler = d.Limiter.Limit(apiHandler)
	}

	root := http.NewServeMux()
	root.Handle("GET /health", &HealthHandler{Store: d.Store, Version: d.Version})
	root.Handle("GET /ready", &ReadyHandler{Store: d.Store})
	root.Handle("GET /live", LiveHandler{})
	root.Handle("GET /metrics", MetricsHandler())
	root.Handle("/", apiHandler)

	var h http.Handler = root
	h = MetricsMiddleware(h)
	h = Logging(logger)(h)
	h = Recover(logger)(h)
	h = tracing.Middleware(pathutil.NormalizePath)(h)
	h = requestid.Middleware(h)
	return h
}
