package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrofeed/internal/observability/metrics"
)

func TestMetricsMiddleware_LabelsByRoute(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	for _, p := range []string{"/articles/k1", "/articles/k2", "/articles/k3", "/articles/missing"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/articles/:key", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/articles/:key", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.HTTPRequestsTotal))
}

func TestMetricsMiddleware_InFlight(t *testing.T) {
	var during float64
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.HTTPRequestsInFlight)
	}))
	before := testutil.ToFloat64(metrics.HTTPRequestsInFlight)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/writers", nil))

	assert.Equal(t, before+1, during)
	assert.Equal(t, before, testutil.ToFloat64(metrics.HTTPRequestsInFlight))
}

func TestMetricsHandler(t *testing.T) {
	metrics.SetEntityCount("horoscope", 12)

	rr := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `astrofeed_entities{kind="horoscope"} 12`)
}
