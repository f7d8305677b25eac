package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
)

// LockFactory creates run locks
type LockFactory interface {
	CreateRunLock(ticker string, day time.Time) RunLock
}

// RunLockName is the lock name of one ticker's run on one calendar day
func RunLockName(ticker string, day time.Time) string {
	return fmt.Sprintf("signal:run:%s:%s", ticker, models.DateKey(day))
}

// lockManager is the part of *redlock.RedLock the run locks use
type lockManager interface {
	Lock(ctx context.Context, resource string, ttl time.Duration) (time.Duration, error)
	UnLock(ctx context.Context, resource string) error
}

type redlockFactory struct {
	manager lockManager
	ping    func(ctx context.Context) error
	prefix  string
	ttl     time.Duration
}

func (f *redlockFactory) CreateRunLock(ticker string, day time.Time) RunLock {
	name := RunLockName(ticker, day)
	return &redlockRunLock{
		manager: f.manager,
		ping:    f.ping,
		name:    name,
		key:     f.prefix + name,
		ttl:     f.ttl,
	}
}

// redlockRunLock is held for the lock TTL after a successful run, so a
// second run of the same day is skipped even on another host
type redlockRunLock struct {
	manager lockManager
	ping    func(ctx context.Context) error
	name    string
	key     string
	ttl     time.Duration
	held    bool
}

func (l *redlockRunLock) TryAcquire(ctx context.Context) (bool, error) {
	validity, err := l.manager.Lock(ctx, l.key, l.ttl)
	if err != nil {
		return false, l.lockError(ctx, err)
	}
	if validity <= 0 {
		return false, fmt.Errorf("lock %s acquired with non-positive validity %v", l.key, validity)
	}

	l.held = true
	logger.Info("run lock acquired",
		zap.String("lock", l.key),
		zap.Duration("validity", validity),
	)
	return true, nil
}

// lockError tells contention apart from an unusable Redis. redlock returns
// the same error for both, so a failed lock is only contention while the
// server still answers a ping.
func (l *redlockRunLock) lockError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if l.ping != nil {
		if pingErr := l.ping(ctx); pingErr != nil {
			return fmt.Errorf("acquire %s: redis unavailable: %w", l.key, errors.Join(err, pingErr))
		}
	}

	logger.Debug("run lock busy", zap.String("lock", l.key), zap.Error(err))
	return nil
}

// Release never fails the run: an expired lock is already gone
func (l *redlockRunLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	l.held = false

	if err := l.manager.UnLock(ctx, l.key); err != nil {
		logger.Warn("failed to release run lock", zap.String("lock", l.key), zap.Error(err))
		return nil
	}
	logger.Info("run lock released", zap.String("lock", l.key))
	return nil
}

func (l *redlockRunLock) Name() string {
	return l.name
}

// NoopLockFactory hands out locks that are always acquired; used without Redis
type NoopLockFactory struct{}

// NewNoopLockFactory creates no-op lock factory
func NewNoopLockFactory() *NoopLockFactory {
	return &NoopLockFactory{}
}

func (f *NoopLockFactory) CreateRunLock(ticker string, day time.Time) RunLock {
	return noopLock(RunLockName(ticker, day))
}

type noopLock string

func (l noopLock) TryAcquire(context.Context) (bool, error) { return true, nil }

func (l noopLock) Release(context.Context) error { return nil }

func (l noopLock) Name() string { return string(l) }
