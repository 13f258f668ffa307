package health

import "errors"

var (
	// ErrCheckFailed marks a component that is not usable.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is reported for a checker that outlived the
	// aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
