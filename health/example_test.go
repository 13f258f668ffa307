package health_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/gptshell/health"
	"github.com/jonwraymond/gptshell/resilience"
)

func ExampleAggregator_Run() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1})

	agg := health.NewAggregator()
	agg.Register(health.NewBreakerChecker("llm", cb))
	agg.Register(health.NewCheckerFunc("history", func(context.Context) health.Result {
		return health.Healthy("12 entries")
	}))

	ctx := context.Background()
	fmt.Println(agg.Run(ctx).Status)

	cb.RecordFailure()
	report := agg.Run(ctx)
	fmt.Println(report.Status, report.Checks["circuit_breaker.llm"].Message)
	// Output:
	// healthy
	// unhealthy circuit open
}
