package cache

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// MaxKeyLength bounds key length in bytes.
const MaxKeyLength = 256

// Cache stores encoded translations by fingerprint.
//
// Contract:
// - Concurrency: implementations are safe for concurrent use.
// - Get reports a miss as (nil, false) and never errors.
// - Delete of an absent key is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value for ttl; ttl <= 0 selects the default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects blank keys, keys over MaxKeyLength and keys holding
// control characters.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return ErrInvalidKey
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	case strings.ContainsFunc(key, unicode.IsControl):
		return ErrInvalidKey
	}
	return nil
}
