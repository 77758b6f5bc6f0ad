// Package respond writes JSON responses for the read API and maps domain
// errors to HTTP status codes without leaking internals to clients.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"astrofeed/internal/domain/entity"
)

// JSON writes v as a JSON body with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are already on the wire
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes {"error": err.Error()} with the given status code.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// StatusFor maps an error from the read path to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidInput), errors.Is(err, entity.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// safeFragments mark messages that describe the caller's own mistake.
var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"unknown",
	"must be",
	"want yyyy-mm-dd",
}

// SafeError writes err for the caller when its message only describes the
// request. 5xx errors are logged (sanitized) and replaced by a generic message.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	if code < 500 && isSafe(msg) {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("request failed",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))

	public := "internal server error"
	if code == http.StatusServiceUnavailable {
		public = "service temporarily unavailable"
	}
	JSON(w, code, map[string]string{"error": public})
}

// Fail maps err with StatusFor and writes it with SafeError.
func Fail(w http.ResponseWriter, err error) {
	SafeError(w, StatusFor(err), err)
}

func isSafe(msg string) bool {
	lower := strings.ToLower(msg)
	for _, f := range safeFragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
