package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrofeed/internal/domain/entity"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     any
		wantBody string
	}{
		{"map", http.StatusOK, map[string]string{"sign": "leo"}, `{"sign":"leo"}` + "\n"},
		{"struct", http.StatusOK, struct {
			Count int `json:"count"`
		}{3}, `{"count":3}` + "\n"},
		{"nil body", http.StatusNoContent, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestJSON_EncodingError(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]any{"bad": make(chan int)})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "limit must be a positive integer", decodeError(t, w))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", fmt.Errorf("get article: %w", entity.ErrNotFound), http.StatusNotFound},
		{"invalid input", fmt.Errorf("horoscope: %w: unknown sign", entity.ErrInvalidInput), http.StatusBadRequest},
		{"validation", &entity.ValidationError{Field: "period", Message: "is required"}, http.StatusBadRequest},
		{"storage", fmt.Errorf("list writers: %w", entity.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		err     error
		wantMsg string
	}{
		{
			name:    "client error passes through",
			code:    http.StatusNotFound,
			err:     fmt.Errorf("get writer: %w", entity.ErrNotFound),
			wantMsg: "get writer: entity not found",
		},
		{
			name:    "invalid date passes through",
			code:    http.StatusBadRequest,
			err:     &entity.ValidationError{Field: "period", Message: `invalid date "2026-13-01", want YYYY-MM-DD`},
			wantMsg: `validation error on field 'period': invalid date "2026-13-01", want YYYY-MM-DD`,
		},
		{
			name:    "unrecognized client error is hidden",
			code:    http.StatusBadRequest,
			err:     errors.New("sql: syntax error near FROM"),
			wantMsg: "internal server error",
		},
		{
			name:    "server error is hidden even when it looks safe",
			code:    http.StatusInternalServerError,
			err:     errors.New("config not found at /etc/astrofeed"),
			wantMsg: "internal server error",
		},
		{
			name:    "storage outage",
			code:    http.StatusServiceUnavailable,
			err:     fmt.Errorf("list articles: %w: database is closed", entity.ErrStorageUnavailable),
			wantMsg: "service temporarily unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SafeError(w, tt.code, tt.err)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, w))
		})
	}
}

func TestSafeError_NilWritesNothing(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusBadRequest, nil)
	assert.Empty(t, w.Body.String())
}

func TestFail(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, fmt.Errorf("horoscope leo 2026-10-17: %w", entity.ErrNotFound))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "horoscope leo 2026-10-17: entity not found", decodeError(t, w))
}
