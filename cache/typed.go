package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Typed stores JSON-encoded values of T in a Cache.
//
// A stored value that no longer decodes is deleted and reported as a miss.
type Typed[T any] struct {
	cache Cache

	// ShouldStore filters values before they are written.
	// Default: every value is stored.
	ShouldStore func(v T) bool
}

// NewTyped wraps c.
func NewTyped[T any](c Cache) *Typed[T] {
	return &Typed[T]{cache: c}
}

// Lookup returns the decoded value for key.
func (t *Typed[T]) Lookup(ctx context.Context, key string) (T, bool) {
	var v T
	raw, ok := t.cache.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		_ = t.cache.Delete(ctx, key)
		var zero T
		return zero, false
	}
	return v, true
}

// Store encodes v and writes it under key with ttl (<= 0 for the default).
func (t *Typed[T]) Store(ctx context.Context, key string, v T, ttl time.Duration) error {
	if t.ShouldStore != nil && !t.ShouldStore(v) {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.cache.Set(ctx, key, raw, ttl)
}
