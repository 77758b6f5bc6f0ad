package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"astrofeed/internal/handler/http/pathutil"
	"astrofeed/internal/observability/metrics"
)

var prometheusGatherer prometheus.Gatherer = prometheus.DefaultGatherer

// MetricsMiddleware counts requests and their latency per route template so
// content keys never become label values.
func MetricsMiddleware(next http.Handler) http.Handler {
	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := wrap(w)
		next.ServeHTTP(rec, r)
		route := pathutil.NormalizePath(r.URL.Path)
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start))
	})
	return promhttp.InstrumentHandlerInFlight(metrics.HTTPRequestsInFlight, counted)
}

// MetricsHandler exposes the default registry, including Go runtime and
// process collectors.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheusGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
