package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/gptshell/observe"
)

// Metric names emitted by LRU.
const (
	MetricHit      = "cache.hit"
	MetricMiss     = "cache.miss"
	MetricExpired  = "cache.expired"
	MetricEviction = "cache.eviction"
	MetricSize     = "cache.size"
)

// LRUConfig configures an LRU cache.
type LRUConfig struct {
	// Capacity is the maximum number of entries.
	// Default: 1000
	Capacity int

	// Policy supplies the default and maximum TTL. A zero DefaultTTL
	// disables the cache.
	// Default: DefaultPolicy()
	Policy *Policy

	// Metrics receives hit/miss/expired/eviction counters and the size gauge.
	// Default: observe.NoopMetrics()
	Metrics observe.Metrics
}

// LRU is a bounded cache ordered by recency of access with per-entry TTL.
//
// Expiry is lazy: Get removes a lapsed entry when it sees one, and
// CleanupExpired sweeps the rest.
type LRU struct {
	capacity int
	policy   Policy
	metrics  observe.Metrics

	mu      sync.Mutex
	ll      *list.List // front = most recently used
	entries map[string]*list.Element
	stats   Stats
}

type entry struct {
	key       string
	value     []byte
	createdAt time.Time
	ttl       time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) >= e.ttl
}

// Stats counts cache events since creation or the last Clear.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Expired   int64 `json:"expired"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
}

// HitRate returns hits / (hits + misses + expired), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses + s.Expired
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// NewLRU creates an LRU cache.
func NewLRU(config LRUConfig) *LRU {
	if config.Capacity <= 0 {
		config.Capacity = 1000
	}
	policy := DefaultPolicy()
	if config.Policy != nil {
		policy = *config.Policy
	}
	if config.Metrics == nil {
		config.Metrics = observe.NoopMetrics()
	}

	return &LRU{
		capacity: config.Capacity,
		policy:   policy,
		metrics:  config.Metrics,
		ll:       list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Enabled reports whether the policy allows caching.
func (c *LRU) Enabled() bool {
	return c.policy.Enabled()
}

// Get returns the value for key and promotes it to most recently used.
// A lapsed entry is removed and reported as expired rather than missed.
func (c *LRU) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}

	c.mu.Lock()
	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		c.mu.Unlock()
		c.metrics.Increment(ctx, MetricMiss, 1)
		return nil, false
	}

	e := el.Value.(*entry)
	if e.expired(time.Now()) {
		c.removeLocked(el)
		c.stats.Expired++
		size := c.ll.Len()
		c.mu.Unlock()
		c.metrics.Increment(ctx, MetricExpired, 1)
		c.metrics.SetGauge(ctx, MetricSize, float64(size))
		return nil, false
	}

	c.ll.MoveToFront(el)
	c.stats.Hits++
	value := e.value
	c.mu.Unlock()

	c.metrics.Increment(ctx, MetricHit, 1)
	return value, true
}

// Set stores value under key. A ttl <= 0 uses the policy default; ttl is
// clamped to the policy maximum. When the cache is full the least recently
// used entry is evicted before inserting, even if key is already present.
func (c *LRU) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	ttl = c.policy.TTL(ttl)

	c.mu.Lock()
	evicted := false
	if c.ll.Len() >= c.capacity {
		if oldest := c.ll.Back(); oldest != nil {
			c.removeLocked(oldest)
			c.stats.Evictions++
			evicted = true
		}
	}

	e := &entry{key: key, value: value, createdAt: time.Now(), ttl: ttl}
	if el, ok := c.entries[key]; ok {
		el.Value = e
		c.ll.MoveToFront(el)
	} else {
		c.entries[key] = c.ll.PushFront(e)
	}
	size := c.ll.Len()
	c.mu.Unlock()

	if evicted {
		c.metrics.Increment(ctx, MetricEviction, 1)
	}
	c.metrics.SetGauge(ctx, MetricSize, float64(size))
	return nil
}

// Delete removes key. Idempotent - no error on miss.
func (c *LRU) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	el, ok := c.entries[key]
	if ok {
		c.removeLocked(el)
	}
	size := c.ll.Len()
	c.mu.Unlock()

	if ok {
		c.metrics.SetGauge(ctx, MetricSize, float64(size))
	}
	return nil
}

// Clear removes every entry and resets Stats.
func (c *LRU) Clear(ctx context.Context) {
	c.mu.Lock()
	c.ll.Init()
	c.entries = make(map[string]*list.Element)
	c.stats = Stats{}
	c.mu.Unlock()

	c.metrics.SetGauge(ctx, MetricSize, 0)
}

// CleanupExpired removes every lapsed entry and returns how many were
// removed. Lazy expiry in Get is sufficient for correctness; the sweep
// bounds memory held by idle entries.
func (c *LRU) CleanupExpired(ctx context.Context) int {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for el := c.ll.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*entry).expired(now) {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}
	c.stats.Expired += int64(removed)
	size := c.ll.Len()
	c.mu.Unlock()

	if removed > 0 {
		c.metrics.Increment(ctx, MetricExpired, int64(removed))
		c.metrics.SetGauge(ctx, MetricSize, float64(size))
	}
	return removed
}

// Len returns the number of entries, including lapsed ones not yet swept.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Keys returns the keys ordered from least to most recently used.
func (c *LRU) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.ll.Len())
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.ll.Len()
	s.Capacity = c.capacity
	return s
}

func (c *LRU) removeLocked(el *list.Element) {
	c.ll.Remove(el)
	delete(c.entries, el.Value.(*entry).key)
}

var _ Cache = (*LRU)(nil)
