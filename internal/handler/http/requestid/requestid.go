// Package requestid tags every API request with an ID that is echoed in the
// response and attached to the request-scoped logger.
package requestid

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"astrofeed/internal/observability/logging"
)

type contextKey struct{}

// Header carries the request ID in both directions.
const Header = "X-Request-ID"

// maxLen bounds client-supplied IDs before they reach logs.
const maxLen = 128

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Middleware reuses a well-formed X-Request-ID from the client or issues a
// new UUID. The ID is set on the response and on the context logger.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > maxLen {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)

		ctx := WithRequestID(r.Context(), id)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(slog.String("request_id", id)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
