// Package health reports whether the translator's moving parts are in a
// usable state.
//
// A Checker reports one component: Healthy, Degraded or Unhealthy. The
// Aggregator runs every registered checker concurrently under a shared
// timeout and folds the results into a Report whose status is the worst
// component status. Component checkers are provided for the circuit
// breaker, the response cache, the task queue and process memory.
//
// Monitor re-runs the aggregator on an interval, logs each Report and
// exports the overall status as a gauge:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewBreakerChecker("llm", orch.Breaker()))
//	agg.Register(health.NewQueueChecker(queue))
//
//	mon := health.NewMonitor(agg, health.MonitorConfig{Interval: 30 * time.Second})
//	go mon.Run(ctx)
//
// RegisterHandlers exposes /healthz (liveness), /readyz (readiness) and
// /health (detailed JSON).
package health
