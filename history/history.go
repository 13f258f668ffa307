package history

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/gammazero/deque"

	"github.com/jonwraymond/gptshell/observe"
)

// Metric names emitted by Store.
const (
	MetricSize   = "history.size"
	MetricGCRuns = "gc.runs"
)

// Entry records one executed command.
type Entry struct {
	Input     string    `json:"input"`
	Command   string    `json:"command"`
	ExitCode  int       `json:"exit_code"`
	Timestamp time.Time `json:"timestamp"`
}

// Config configures a Store.
type Config struct {
	// MaxEntries bounds the history; the oldest entry is dropped first.
	// Default: 1000
	MaxEntries int

	// Metrics receives the history.size gauge and gc.runs counter.
	// Default: observe.NoopMetrics()
	Metrics observe.Metrics

	// Logger receives GC loop output.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Store is a bounded FIFO of entries. Safe for concurrent use.
type Store struct {
	max     int
	metrics observe.Metrics
	logger  observe.Logger

	mu      sync.Mutex
	entries *deque.Deque[Entry]
}

// New creates a Store.
func New(config Config) *Store {
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1000
	}
	if config.Metrics == nil {
		config.Metrics = observe.NoopMetrics()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	return &Store{
		max:     config.MaxEntries,
		metrics: config.Metrics,
		logger:  config.Logger,
		entries: deque.New[Entry](),
	}
}

// Add appends e, stamping Timestamp when unset.
func (s *Store) Add(ctx context.Context, e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.entries.PushBack(e)
	for s.entries.Len() > s.max {
		s.entries.PopFront()
	}
	size := s.entries.Len()
	s.mu.Unlock()

	s.metrics.SetGauge(ctx, MetricSize, float64(size))
}

// Recent returns up to n of the newest entries, oldest first. n <= 0
// returns everything.
func (s *Store) Recent(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.entries.Len()
	if n <= 0 || n > total {
		n = total
	}
	out := make([]Entry, 0, n)
	for i := total - n; i < total; i++ {
		out = append(out, s.entries.At(i))
	}
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.entries.Clear()
	s.mu.Unlock()

	s.metrics.SetGauge(ctx, MetricSize, 0)
}

// RunGC forces a garbage collection every interval until ctx is done.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

func (s *Store) collect(ctx context.Context) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	runtime.GC()
	runtime.ReadMemStats(&after)

	s.metrics.Increment(ctx, MetricGCRuns, 1)
	s.logger.Debug(ctx, "garbage collection",
		observe.F("heap_alloc_before", before.HeapAlloc),
		observe.F("heap_alloc_after", after.HeapAlloc),
		observe.F("history_size", s.Len()),
	)
}
