package cache

import "time"

// Policy decides how long entries live.
type Policy struct {
	// DefaultTTL applies when Set is given no TTL. Zero disables caching.
	DefaultTTL time.Duration

	// MaxTTL caps every TTL. Zero leaves TTLs uncapped.
	MaxTTL time.Duration
}

// DefaultPolicy keeps entries for an hour and never longer than a day.
func DefaultPolicy() Policy {
	return Policy{DefaultTTL: time.Hour, MaxTTL: 24 * time.Hour}
}

// NoCachePolicy disables caching.
func NoCachePolicy() Policy { return Policy{} }

// Enabled reports whether entries are stored at all.
func (p Policy) Enabled() bool { return p.DefaultTTL > 0 }

// TTL returns requested, or DefaultTTL when requested <= 0, capped at
// MaxTTL.
func (p Policy) TTL(requested time.Duration) time.Duration {
	if requested <= 0 {
		requested = p.DefaultTTL
	}
	if p.MaxTTL > 0 {
		return min(requested, p.MaxTTL)
	}
	return requested
}
