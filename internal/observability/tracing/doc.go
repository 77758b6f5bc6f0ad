// Package tracing provides OpenTelemetry spans for generation cycles and the
// read API. Exporters and the tracer provider are configured by the process;
// without one the global no-op provider is used.
package tracing
