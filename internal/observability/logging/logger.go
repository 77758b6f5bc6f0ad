// Package logging builds the process loggers on log/slog and carries a
// per-cycle or per-request logger through context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "warning":
		level = slog.LevelWarn
	default:
		if level.UnmarshalText([]byte(v)) != nil {
			level = slog.LevelInfo
		}
	}
	return level
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
// ("json", the default, or "text").
func NewLogger() *slog.Logger {
	text := strings.EqualFold(os.Getenv("LOG_FORMAT"), "text")
	return newLogger(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")), text)
}

func newLogger(w io.Writer, level slog.Level, text bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if text {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(traceHandler{h})
}

// traceHandler stamps records logged with a span in context with its IDs.
type traceHandler struct{ slog.Handler }

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

// WithCycle tags logger with a generation cycle's kind and period.
func WithCycle(logger *slog.Logger, kind, period string) *slog.Logger {
	return logger.With(slog.String("kind", kind), slog.String("period", period))
}

type loggerKey struct{}

// WithLogger returns ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
