package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay after the first failed attempt.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries, before jitter.
	// Default: 10s
	MaxDelay time.Duration

	// Multiplier is the exponential base.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds a uniform random extra of up to 10% of each delay.
	Jitter bool

	// RetryIf determines if an error should trigger a retry. Errors it
	// rejects are returned as-is without exhausting the budget.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each backoff sleep with the 1-based number
	// of the attempt that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)

	// OnRecovered is called when an attempt succeeds after at least one
	// failure.
	OnRecovered func(attempt int)

	// OnExhausted is called once every attempt has failed.
	OnExhausted func(attempts int, err error)
}

// RetryExhaustedError reports that every attempt failed.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrRetryExhausted.Error(), e.Attempts, e.Last)
}

// Unwrap exposes both ErrRetryExhausted and the last attempt's error.
func (e *RetryExhaustedError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.Last}
}

// Retry implements retry with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 10 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}
}

// Execute runs op with retry logic. It returns nil on success, a
// *RetryExhaustedError when every attempt failed, ctx.Err() when the
// context ends during a backoff, or the first error RetryIf rejects.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Do(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs op under r's policy and returns the first successful value.
func Do[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			if attempt > 0 && r.config.OnRecovered != nil {
				r.config.OnRecovered(attempt + 1)
			}
			return v, nil
		}

		lastErr = err
		if !r.config.RetryIf(err) {
			return zero, err
		}

		if attempt == r.config.MaxAttempts-1 {
			break
		}

		delay := r.Delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	if r.config.OnExhausted != nil {
		r.config.OnExhausted(r.config.MaxAttempts, lastErr)
	}
	return zero, &RetryExhaustedError{Attempts: r.config.MaxAttempts, Last: lastErr}
}

// Delay returns the backoff to sleep after the 0-based attempt index,
// including jitter when enabled.
func (r *Retry) Delay(attempt int) time.Duration {
	delay := r.BaseDelay(attempt)

	if r.config.Jitter && delay > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Float64() * 0.1 * float64(delay))
	}
	return delay
}

// BaseDelay returns the capped backoff for the 0-based attempt index
// without jitter.
func (r *Retry) BaseDelay(attempt int) time.Duration {
	var delay float64
	base := float64(r.config.BaseDelay)

	switch r.config.Strategy {
	case BackoffConstant:
		delay = base
	case BackoffLinear:
		delay = base * float64(attempt+1)
	default:
		delay = base * math.Pow(r.config.Multiplier, float64(attempt))
	}

	if delay > float64(r.config.MaxDelay) {
		return r.config.MaxDelay
	}
	return time.Duration(delay)
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
