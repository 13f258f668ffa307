package health

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/gptshell/observe"
)

// MetricStatus is the gauge holding the last overall Status.
const MetricStatus = "health.status"

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// Interval between rounds.
	// Default: 30s
	Interval time.Duration

	// Metrics receives the health.status gauge.
	// Default: observe.NoopMetrics()
	Metrics observe.Metrics

	// Logger receives one entry per round: debug when healthy, warn
	// otherwise.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Monitor runs an Aggregator periodically and keeps the latest Report.
type Monitor struct {
	agg    *Aggregator
	config MonitorConfig

	mu   sync.RWMutex
	last Report
	ok   bool
}

// NewMonitor creates a Monitor over agg.
func NewMonitor(agg *Aggregator, config MonitorConfig) *Monitor {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.Metrics == nil {
		config.Metrics = observe.NoopMetrics()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	return &Monitor{agg: agg, config: config}
}

// Run checks every Interval until ctx is done. It always returns nil so it
// can sit in an errgroup beside other loops.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single round and returns its Report.
func (m *Monitor) RunOnce(ctx context.Context) Report {
	report := m.agg.Run(ctx)

	m.mu.Lock()
	m.last, m.ok = report, true
	m.mu.Unlock()

	m.config.Metrics.SetGauge(ctx, MetricStatus, float64(report.Status))

	fields := []observe.Field{observe.F("status", report.Status.String())}
	for _, name := range m.agg.Names() {
		if r, ok := report.Checks[name]; ok {
			fields = append(fields, observe.F(name, r.Status.String()))
		}
	}
	if report.Status == StatusHealthy {
		m.config.Logger.Debug(ctx, "health check", fields...)
	} else {
		m.config.Logger.Warn(ctx, "health check", fields...)
	}
	return report
}

// Last returns the most recent Report, or false before the first round.
func (m *Monitor) Last() (Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.ok
}
