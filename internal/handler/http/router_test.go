package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrofeed/internal/handler/http/content"
	"astrofeed/internal/handler/http/requestid"
	"astrofeed/internal/infra/adapter/persistence/sqlite"
	"astrofeed/internal/infra/db"
	"astrofeed/internal/repository"
	contentUC "astrofeed/internal/usecase/content"
)

func newTestRouter(t *testing.T, limiter *RateLimiter) http.Handler {
	t.Helper()
	h := memoryHandle(t)
	ctx := context.Background()
	pool, err := h.DB(ctx)
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(ctx, pool))
	require.NoError(t, db.Seed(ctx, pool))

	svc := &contentUC.Service{
		Writers:    sqlite.New(h, repository.WriterConfig()),
		Articles:   sqlite.New(h, repository.ArticleConfig()),
		Horoscopes: sqlite.New(h, repository.HoroscopeConfig()),
	}
	return NewRouter(RouterDeps{
		Content:        svc,
		Store:          h,
		Version:        "test",
		Clock:          content.Clock{Location: time.UTC},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Limiter:        limiter,
		RequestTimeout: 5 * time.Second,
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/live", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/writers", http.StatusOK},
		{"/writers/random", http.StatusOK},
		{"/writers/7f6c2a1e-4b3d-4c2a-9e1f-0d4e5f6a7b01", http.StatusOK},
		{"/horoscopes/today", http.StatusOK},
		{"/horoscopes/2026-10-17/aries", http.StatusNotFound},
		{"/articles", http.StatusOK},
		{"/articles/does-not-exist", http.StatusNotFound},
		{"/nowhere", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, rr.Header().Get(requestid.Header))
		})
	}
}

func TestRouter_ReadOnly(t *testing.T) {
	router := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/writers", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_RateLimitSkipsProbes(t *testing.T) {
	router := newTestRouter(t, NewRateLimiter(0, 1, false))

	get := func(path string) int {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, get("/writers"))
	assert.Equal(t, http.StatusTooManyRequests, get("/writers"))
	assert.Equal(t, http.StatusOK, get("/live"))
	assert.Equal(t, http.StatusOK, get("/health"))
}
