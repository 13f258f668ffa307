package observe

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MaxHistogramSize bounds the number of observations kept per histogram
// for the in-process snapshot.
const MaxHistogramSize = 1000

// Metrics records counters, gauges and histograms by name.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; ctx is forwarded to the OTel instruments.
// - Errors: implementations must not panic; instrument creation failures
//   only disable export for that name.
type Metrics interface {
	// Increment adds delta to the named counter.
	Increment(ctx context.Context, name string, delta int64)

	// SetGauge sets the named gauge to value.
	SetGauge(ctx context.Context, name string, value float64)

	// Observe records a histogram observation.
	Observe(ctx context.Context, name string, value float64)

	// Snapshot returns a point-in-time copy of all recorded values.
	Snapshot() Snapshot
}

// Snapshot is a copy of the in-process metric state.
type Snapshot struct {
	Counters   map[string]int64          `json:"counters"`
	Gauges     map[string]float64        `json:"gauges"`
	Histograms map[string]HistogramStats `json:"histograms"`
}

// Counter returns the named counter value, or 0.
func (s Snapshot) Counter(name string) int64 {
	return s.Counters[name]
}

// Gauge returns the named gauge value and whether it was ever set.
func (s Snapshot) Gauge(name string) (float64, bool) {
	v, ok := s.Gauges[name]
	return v, ok
}

// HistogramStats summarises the retained observations of a histogram.
type HistogramStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

// Names returns the sorted names of every metric in the snapshot.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.Counters)+len(s.Gauges)+len(s.Histograms))
	for n := range s.Counters {
		names = append(names, n)
	}
	for n := range s.Gauges {
		names = append(names, n)
	}
	for n := range s.Histograms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// metricsImpl mirrors every recording into OTel instruments and a local
// snapshot.
type metricsImpl struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64

	otelCounters   map[string]metric.Int64Counter
	otelGauges     map[string]metric.Float64Gauge
	otelHistograms map[string]metric.Float64Histogram
}

// NewMetrics creates a Metrics recorder backed by meter.
// A nil meter records only the in-process snapshot.
func NewMetrics(meter metric.Meter) Metrics {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}
	return &metricsImpl{
		meter:          meter,
		counters:       make(map[string]int64),
		gauges:         make(map[string]float64),
		histograms:     make(map[string][]float64),
		otelCounters:   make(map[string]metric.Int64Counter),
		otelGauges:     make(map[string]metric.Float64Gauge),
		otelHistograms: make(map[string]metric.Float64Histogram),
	}
}

func (m *metricsImpl) Increment(ctx context.Context, name string, delta int64) {
	m.mu.Lock()
	m.counters[name] += delta
	c, ok := m.otelCounters[name]
	if !ok {
		var err error
		c, err = m.meter.Int64Counter(name)
		if err == nil {
			m.otelCounters[name] = c
		}
	}
	m.mu.Unlock()

	if c != nil {
		c.Add(ctx, delta)
	}
}

func (m *metricsImpl) SetGauge(ctx context.Context, name string, value float64) {
	m.mu.Lock()
	m.gauges[name] = value
	g, ok := m.otelGauges[name]
	if !ok {
		var err error
		g, err = m.meter.Float64Gauge(name)
		if err == nil {
			m.otelGauges[name] = g
		}
	}
	m.mu.Unlock()

	if g != nil {
		g.Record(ctx, value)
	}
}

func (m *metricsImpl) Observe(ctx context.Context, name string, value float64) {
	m.mu.Lock()
	values := append(m.histograms[name], value)
	if len(values) > MaxHistogramSize {
		values = values[len(values)-MaxHistogramSize:]
	}
	m.histograms[name] = values
	h, ok := m.otelHistograms[name]
	if !ok {
		var err error
		h, err = m.meter.Float64Histogram(name)
		if err == nil {
			m.otelHistograms[name] = h
		}
	}
	m.mu.Unlock()

	if h != nil {
		h.Record(ctx, value)
	}
}

func (m *metricsImpl) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Counters:   make(map[string]int64, len(m.counters)),
		Gauges:     make(map[string]float64, len(m.gauges)),
		Histograms: make(map[string]HistogramStats, len(m.histograms)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	for k, values := range m.histograms {
		s.Histograms[k] = summarize(values)
	}
	return s
}

func summarize(values []float64) HistogramStats {
	if len(values) == 0 {
		return HistogramStats{}
	}
	st := HistogramStats{Count: len(values), Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range values {
		sum += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	st.Avg = sum / float64(len(values))
	return st
}

// NoopMetrics returns a Metrics that discards everything.
func NoopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) Increment(context.Context, string, int64)  {}
func (noopMetrics) SetGauge(context.Context, string, float64) {}
func (noopMetrics) Observe(context.Context, string, float64)  {}
func (noopMetrics) Snapshot() Snapshot {
	return Snapshot{
		Counters:   map[string]int64{},
		Gauges:     map[string]float64{},
		Histograms: map[string]HistogramStats{},
	}
}

var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = noopMetrics{}
)
