package app

import (
	"time"

	"github.com/jonwraymond/gptshell/cache"
	"github.com/jonwraymond/gptshell/observe"
	"github.com/jonwraymond/gptshell/resilience"
	"github.com/jonwraymond/gptshell/taskqueue"
)

// Stats is a point-in-time view of the whole pipeline.
type Stats struct {
	Timestamp   time.Time                        `json:"timestamp"`
	Breaker     resilience.CircuitBreakerMetrics `json:"circuit_breaker"`
	RateTokens  float64                          `json:"rate_limit_tokens"`
	Cache       CacheStats                       `json:"cache"`
	Queue       taskqueue.Stats                  `json:"task_queue"`
	HistorySize int                              `json:"history_size"`
	Health      string                           `json:"health,omitempty"`
	Metrics     observe.Snapshot                 `json:"metrics"`
}

// CacheStats adds the hit rate to cache.Stats.
type CacheStats struct {
	cache.Stats
	Enabled bool    `json:"enabled"`
	HitRate float64 `json:"hit_rate"`
}

// Stats collects current counters from every component. Health is the
// status of the monitor's last round, empty before the first one.
func (a *App) Stats() Stats {
	cs := a.cache.Stats()
	s := Stats{
		Timestamp:   time.Now().UTC(),
		Breaker:     a.translator.Breaker().Metrics(),
		RateTokens:  a.translator.Limiter().Tokens(),
		Cache:       CacheStats{Stats: cs, Enabled: a.cache.Enabled(), HitRate: cs.HitRate()},
		Queue:       a.queue.Stats(),
		HistorySize: a.history.Len(),
		Metrics:     a.metrics.Snapshot(),
	}
	if r, ok := a.monitor.Last(); ok {
		s.Health = r.Status.String()
	}
	return s
}
