// Package resilience groups the fault tolerance helpers used around external calls.
//
// The subpackages provide:
//   - circuit breakers for the source fetchers, the OpenRouter client and database probes
//   - retry with exponential backoff and jitter for AI calls
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.OpenRouterConfig())
//	text, err := circuitbreaker.Do(cb, func() (string, error) {
//	    return callModel(ctx)
//	})
//
//	err := retry.WithBackoff(ctx, retry.AIAPIConfig(), func() error {
//	    return performOperation()
//	})
package resilience
