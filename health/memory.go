package health

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"runtime/debug"
)

// MemoryCheckerConfig configures the memory checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap/limit ratio that reports degraded.
	// Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap/limit ratio that reports unhealthy.
	// Default: 0.95
	CriticalThreshold float64

	// Limit is the heap budget in bytes. Zero uses the runtime soft
	// memory limit (GOMEMLIMIT) when one is set, otherwise memory
	// obtained from the OS.
	Limit uint64
}

// MemoryChecker compares live heap against a budget.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a MemoryChecker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = math.Min(config.WarningThreshold+0.1, 0.99)
	}
	return &MemoryChecker{config: config}
}

func (m *MemoryChecker) Name() string { return "memory" }

func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	limit := m.limit(stats.Sys)
	ratio := float64(stats.HeapAlloc) / float64(limit)
	details := map[string]any{
		"heap_alloc":    stats.HeapAlloc,
		"heap_objects":  stats.HeapObjects,
		"limit":         limit,
		"usage_percent": ratio * 100,
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	switch {
	case ratio >= m.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= m.config.WarningThreshold:
		return Degraded(fmt.Sprintf("memory usage high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}

func (m *MemoryChecker) limit(sys uint64) uint64 {
	if m.config.Limit > 0 {
		return m.config.Limit
	}
	// A negative input reads the limit without changing it.
	if soft := debug.SetMemoryLimit(-1); soft > 0 && soft != math.MaxInt64 {
		return uint64(soft)
	}
	if sys == 0 {
		return 1
	}
	return sys
}
