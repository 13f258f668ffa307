package cache

import "errors"

var (
	// ErrInvalidKey is returned for an empty key or one holding control
	// characters.
	ErrInvalidKey = errors.New("cache: invalid key")

	// ErrKeyTooLong is returned for a key longer than MaxKeyLength.
	ErrKeyTooLong = errors.New("cache: key too long")
)
