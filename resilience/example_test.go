package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/gptshell/resilience"
)

func ExampleNewCircuitBreaker() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
		OnStateChange: func(from, to resilience.State) {
			fmt.Printf("circuit %s -> %s\n", from, to)
		},
	})

	fmt.Println("allow:", cb.Allow())
	cb.RecordFailure()
	cb.RecordFailure()
	fmt.Println("allow:", cb.Allow())
	// Output:
	// allow: true
	// circuit closed -> open
	// allow: false
}

func ExampleCircuitBreaker_Reset() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1})

	cb.RecordFailure()
	fmt.Println("after failure:", cb.State())
	cb.Reset()
	fmt.Println("after reset:", cb.State())
	// Output:
	// after failure: open
	// after reset: closed
}

func ExampleDo() {
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		OnRecovered: func(attempt int) {
			fmt.Println("recovered on attempt", attempt)
		},
	})

	calls := 0
	cmd, err := resilience.Do(context.Background(), retry, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("temporary failure")
		}
		return "df -h", nil
	})

	fmt.Println(cmd, err)
	// Output:
	// recovered on attempt 2
	// df -h <nil>
}

func ExampleRetry_Execute_exhausted() {
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
	})

	err := retry.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("upstream unavailable")
	})

	fmt.Println(errors.Is(err, resilience.ErrRetryExhausted))
	// Output:
	// true
}

func ExampleNewRateLimiter() {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:  resilience.PerMinute(60),
		Burst: 3,
	})

	for i := 0; i < 5; i++ {
		fmt.Println(rl.Allow())
	}
	// Output:
	// true
	// true
	// true
	// false
	// false
}

func ExampleExecuteValue() {
	t := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: 10 * time.Millisecond})

	_, err := resilience.ExecuteValue(context.Background(), t, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	fmt.Println(errors.Is(err, resilience.ErrTimeout))
	// Output:
	// true
}
