// Package observability is the parent of the logging, metrics, slo and tracing
// packages shared by the worker, the read API and the backfill command.
//
// Metrics are served on the worker's metrics port and on the API's /metrics
// route. Tracing only correlates log lines and API responses unless an
// exporter is configured.
package observability
