package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrofeed/internal/handler/http/requestid"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestLogging(t *testing.T) {
	logger, buf := bufferLogger()
	h := requestid.Middleware(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/writers?x=1", nil)
	req.Header.Set(requestid.Header, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "/writers", entry["path"])
	assert.Equal(t, "x=1", entry["query"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.EqualValues(t, len("short and stout"), entry["bytes"])
}

func TestLogging_ServerErrorsLogAtError(t *testing.T) {
	logger, buf := bufferLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/articles", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
}

func TestRecover(t *testing.T) {
	logger, _ := bufferLogger()
	h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("sign table corrupted")
	}))

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/horoscopes/today", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "sign table")
}

func TestRecover_ReraisesAbort(t *testing.T) {
	logger, _ := bufferLogger()
	h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func newTestLimiter(rps float64, burst int, trust bool, now *time.Time) *RateLimiter {
	rl := NewRateLimiter(rps, burst, trust)
	rl.now = func() time.Time { return *now }
	return rl
}

func TestRateLimiter_Burst(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(1, 3, false, &now)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/writers", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do().Code, "request %d", i)
	}
	rr := do()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, do().Code, "one token refilled")
}

func TestRateLimiter_PerClient(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(1, 1, false, &now)

	assert.True(t, rl.allow("198.51.100.1"))
	assert.False(t, rl.allow("198.51.100.1"))
	assert.True(t, rl.allow("198.51.100.2"))
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(1, 1, false, &now)

	rl.allow("a")
	rl.allow("b")
	assert.Equal(t, 2, rl.tracked())

	now = now.Add(11 * time.Minute)
	rl.allow("c")
	assert.Equal(t, 1, rl.tracked())
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(0, 10, false)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.allow("10.0.0.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestRateLimiter_ClientIP(t *testing.T) {
	tests := []struct {
		name   string
		trust  bool
		remote string
		xff    string
		want   string
	}{
		{"remote addr", false, "192.0.2.1:1234", "", "192.0.2.1"},
		{"xff ignored when untrusted", false, "192.0.2.1:1234", "203.0.113.9", "192.0.2.1"},
		{"xff first hop when trusted", true, "10.0.0.1:80", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"garbage xff falls back", true, "10.0.0.1:80", "not-an-ip", "10.0.0.1"},
		{"remote without port", false, "192.0.2.5", "", "192.0.2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(1, 1, tt.trust)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, rl.clientIP(req))
		})
	}
}
