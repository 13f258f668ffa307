// Package translate turns natural-language requests into shell commands
// through a resilient pipeline around an unreliable remote model.
//
// Each request passes, in order:
//
//  1. input validation (optional)
//  2. the token-bucket rate limiter
//  3. the response cache, keyed by a fingerprint of input and context
//  4. the circuit breaker guarding the primary provider
//  5. retry with backoff around a timed primary call
//  6. the fallback chain, tried once each
//
// When everything fails the caller still gets a degraded Result with a
// human-readable explanation. Translate never returns an error.
package translate
