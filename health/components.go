package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/gptshell/cache"
	"github.com/jonwraymond/gptshell/resilience"
	"github.com/jonwraymond/gptshell/taskqueue"
)

// NewBreakerChecker reports a circuit breaker: open is unhealthy,
// half-open is degraded.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) Checker {
	return NewCheckerFunc("circuit_breaker."+name, func(context.Context) Result {
		m := cb.Metrics()
		details := map[string]any{
			"state":             m.State.String(),
			"failures":          m.Failures,
			"successes":         m.Successes,
			"last_state_change": m.LastStateChange,
		}
		switch m.State {
		case resilience.StateOpen:
			return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
		case resilience.StateHalfOpen:
			return Degraded("circuit half-open, probing upstream").WithDetails(details)
		default:
			return Healthy("circuit closed").WithDetails(details)
		}
	})
}

// NewCacheChecker reports cache occupancy and hit rate. The cache is
// always healthy; a disabled cache is noted in the message.
func NewCacheChecker(c *cache.LRU) Checker {
	return NewCheckerFunc("cache", func(context.Context) Result {
		s := c.Stats()
		details := map[string]any{
			"size":      s.Size,
			"capacity":  s.Capacity,
			"hits":      s.Hits,
			"misses":    s.Misses,
			"expired":   s.Expired,
			"evictions": s.Evictions,
			"hit_rate":  s.HitRate(),
		}
		if !c.Enabled() {
			return Healthy("cache disabled").WithDetails(details)
		}
		return Healthy(fmt.Sprintf("%d/%d entries", s.Size, s.Capacity)).WithDetails(details)
	})
}

// QueueDegradedRatio is the fill level at which the queue reports degraded.
const QueueDegradedRatio = 0.9

// NewQueueChecker reports task queue backlog. A queue at or above
// QueueDegradedRatio of its capacity is degraded.
func NewQueueChecker(q *taskqueue.Queue) Checker {
	return NewCheckerFunc("task_queue", func(context.Context) Result {
		s := q.Stats()
		details := map[string]any{
			"queued":    s.Queued,
			"running":   s.Running,
			"workers":   s.Workers,
			"max_size":  s.MaxSize,
			"completed": s.Completed,
			"failed":    s.Failed,
			"rejected":  s.Rejected,
		}
		msg := fmt.Sprintf("%d/%d queued", s.Queued, s.MaxSize)
		if s.MaxSize > 0 && float64(s.Queued) >= QueueDegradedRatio*float64(s.MaxSize) {
			return Degraded("queue nearly full: " + msg).WithDetails(details)
		}
		return Healthy(msg).WithDetails(details)
	})
}
