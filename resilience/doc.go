// Package resilience provides the admission and recovery primitives that
// guard calls to the remote language model.
//
//   - CircuitBreaker tracks upstream health. It opens after consecutive
//     failures, lazily admits trial requests once the recovery timeout has
//     passed, and closes again after enough trial successes.
//
//   - RateLimiter is a token bucket with continuous refill.
//
//   - Retry re-runs an operation with capped exponential, linear or
//     constant backoff and reports exhaustion as *RetryExhaustedError.
//
//   - Timeout bounds a single call independently of the retry budget.
//
// The primitives are composed explicitly by the caller; their order is
// part of the caller's contract:
//
//	if !limiter.Allow() {
//	    return rateLimited()
//	}
//	if breaker.Allow() {
//	    out, err := resilience.Do(ctx, retry, func(ctx context.Context) (string, error) {
//	        return resilience.ExecuteValue(ctx, timeout, call)
//	    })
//	    ...
//	}
package resilience
