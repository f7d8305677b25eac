package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/pkg/logger"
)

// Worker interface that background workers should implement
type Worker interface {
	// Name returns worker name for logging
	Name() string
	// Run executes one iteration of work
	Run(ctx context.Context) error
}

// ScheduledWorker runs a Worker on a cron schedule. An iteration that is
// still running when the next one is due causes that one to be skipped.
type ScheduledWorker struct {
	worker  Worker
	cron    *cron.Cron
	entryID cron.EntryID
	spec    string
	name    string
	ctx     context.Context
}

// NewScheduledWorker creates new cron-scheduled worker; spec is a standard
// five-field cron expression evaluated in loc
func NewScheduledWorker(worker Worker, spec string, loc *time.Location) (*ScheduledWorker, error) {
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{name: worker.Name()}
	sw := &ScheduledWorker{
		worker: worker,
		spec:   spec,
		name:   worker.Name(),
		ctx:    context.Background(),
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}

	id, err := sw.cron.AddFunc(spec, func() { sw.RunNow(sw.ctx) })
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	sw.entryID = id

	return sw, nil
}

// Start starts the scheduler; iterations receive ctx
func (sw *ScheduledWorker) Start(ctx context.Context) {
	sw.ctx = ctx
	sw.cron.Start()

	logger.Info("🚀 Worker started",
		zap.String("worker", sw.name),
		zap.String("schedule", sw.spec),
		zap.Time("next_run", sw.Next()),
	)
}

// RunNow executes one iteration synchronously, logging any error
func (sw *ScheduledWorker) RunNow(ctx context.Context) {
	start := time.Now()

	if err := sw.worker.Run(ctx); err != nil {
		logger.Error("worker execution failed",
			zap.String("worker", sw.name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		// Continue despite error - don't crash worker
		return
	}

	logger.Debug("worker iteration finished",
		zap.String("worker", sw.name),
		zap.Duration("duration", time.Since(start)),
	)
}

// Next returns the next scheduled run
func (sw *ScheduledWorker) Next() time.Time {
	return sw.cron.Entry(sw.entryID).Next
}

// Stop stops scheduling and waits for a running iteration, up to timeout
func (sw *ScheduledWorker) Stop(timeout time.Duration) {
	logger.Info("🛑 Worker stopping", zap.String("worker", sw.name))

	done := sw.cron.Stop()

	select {
	case <-done.Done():
		logger.Info("✅ Worker stopped gracefully",
			zap.String("worker", sw.name),
		)
	case <-time.After(timeout):
		logger.Warn("⚠️ Worker stop timeout",
			zap.String("worker", sw.name),
		)
	}
}

// cronLogger routes robfig/cron messages to zap
type cronLogger struct {
	name string
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg,
		zap.String("worker", l.name),
		zap.Any("details", keysAndValues),
	)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg,
		zap.String("worker", l.name),
		zap.Any("details", keysAndValues),
		zap.Error(err),
	)
}
