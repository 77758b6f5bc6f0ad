package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"astrofeed/internal/pkg/config"
)

// Setup installs an SDK tracer provider for service as the global provider
// and the W3C trace context propagator. sampleRatio applies to root spans;
// child spans follow their parent's decision. The returned function flushes
// and stops the provider.
//
// No exporter is registered here, so spans only feed log correlation and the
// trace response header until one is added with sdktrace.WithBatcher.
func Setup(service, version string, sampleRatio float64, opts ...sdktrace.TracerProviderOption) func(context.Context) error {
	res := resource.NewSchemaless(
		attribute.String("service.name", service),
		attribute.String("service.version", version),
	)
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
	}, opts...)

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown
}

// SetupFromEnv is Setup with the root sample ratio read from
// TRACE_SAMPLE_RATIO (0 to 1, default 1).
func SetupFromEnv(service, version string, logger *slog.Logger) func(context.Context) error {
	ratio := config.LoadEnvFloat("TRACE_SAMPLE_RATIO", 1, config.ValidateRatio)
	for _, w := range ratio.Warnings {
		logger.Warn("configuration fallback applied", slog.String("component", "tracing"), slog.String("warning", w))
	}
	return Setup(service, version, ratio.Value)
}
