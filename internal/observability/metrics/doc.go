// Package metrics registers the astrofeed_* Prometheus series on the default
// registry and offers Record helpers so callers never touch label order.
//
//	metrics.RecordCycle(summary.Kind.String(), string(summary.State),
//		summary.Generated, summary.Skipped, len(summary.Failed), summary.Duration)
package metrics
