package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName identifies spans created by this module.
const instrumentationName = "astrofeed"

// GetTracer returns the tracer of the current global provider.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartCycle opens the span covering one generation cycle.
func StartCycle(ctx context.Context, kind, period string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "generate.cycle",
		trace.WithAttributes(
			attribute.String("generation.kind", kind),
			attribute.String("generation.period", period),
		))
}

// StartUnit opens a child span for one unit of a cycle.
func StartUnit(ctx context.Context, unit string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "generate.unit",
		trace.WithAttributes(attribute.String("generation.unit", unit)))
}

// EndWithError records err on span, if any, and ends it.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
