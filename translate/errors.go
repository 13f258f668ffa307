package translate

import "errors"

var (
	// ErrNoPrimary is returned by New when Config.Primary is nil.
	ErrNoPrimary = errors.New("translate: primary provider is required")

	// ErrAllProvidersFailed is the Err of a degraded Result when the primary
	// and every fallback failed.
	ErrAllProvidersFailed = errors.New("translate: all providers failed")
)
