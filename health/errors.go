package health

import "errors"

var (
	// ErrCheckFailed is attached to unhealthy results that have no more
	// specific cause.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is attached to results whose check outlived the
	// aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrCacheFull is attached to results for a cache at or over a limit.
	ErrCacheFull = errors.New("health: cache at capacity")
)
