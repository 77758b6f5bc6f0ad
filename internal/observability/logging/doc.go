// Records logged with a context that holds an OpenTelemetry span carry
// trace_id and span_id, so a cycle's log lines can be joined with its spans:
//
//	ctx, span := tracing.StartCycle(ctx, "horoscope", period.String())
//	defer span.End()
//	logging.FromContext(ctx).InfoContext(ctx, "cycle started")
package logging
