package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/pkg/logger"
)

// Policy bounds a retried operation
type Policy struct {
	Attempts   int           // total attempts, at least 1
	BaseDelay  time.Duration // delay before the second attempt, doubled after each failure
	Timeout    time.Duration // per-attempt timeout, zero means none
	MaxBackoff time.Duration // cap on a single delay, zero means none
}

// Do runs fn until it succeeds, the attempts are exhausted or ctx is done.
// Backoff is exponential: base, 2*base, 4*base...
func Do(ctx context.Context, name string, policy Policy, fn func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := Backoff(policy, attempt)
			logger.Debug("retrying",
				zap.String("operation", name),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", attempts),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during retry backoff: %w", name, ctx.Err())
			}
		}

		lastErr = call(ctx, policy.Timeout, fn)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, lastErr)
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			logger.Warn("non-retryable error, aborting",
				zap.String("operation", name),
				zap.Error(perm.err),
			)
			return fmt.Errorf("%s: %w", name, perm.err)
		}

		logger.Warn("attempt failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	return fmt.Errorf("%s: max attempts (%d) exceeded: %w", name, attempts, lastErr)
}

// Backoff returns the delay before the given attempt (attempt >= 1)
func Backoff(policy Policy, attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := time.Duration(float64(policy.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if policy.MaxBackoff > 0 && d > policy.MaxBackoff {
		return policy.MaxBackoff
	}
	return d
}

func call(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }
