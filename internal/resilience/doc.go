// Package resilience groups the fault tolerance helpers used around content
// providers and generation units.
//
//   - circuitbreaker refuses calls to a backend that keeps failing
//   - retry re-runs a unit with capped exponential backoff, only for errors
//     its predicate calls transient
//
// A provider call goes through one breaker; the orchestrator retries the whole
// unit around it:
//
//	b := circuitbreaker.New(circuitbreaker.TextProviderConfig("openai"), nil)
//	err := retry.Do(ctx, retry.GenerationConfig(3), func(ctx context.Context) error {
//	    return b.Call(func() error { return callBackend(ctx) })
//	})
package resilience
