package redis

import "context"

// RunLock guards one pipeline run against a concurrent or repeated run of the
// same ticker and day
type RunLock interface {
	// TryAcquire reports false without error when another run holds the lock
	TryAcquire(ctx context.Context) (bool, error)

	// Release frees the lock so a failed run can be retried the same day
	Release(ctx context.Context) error

	Name() string
}
