package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/health"
	"github.com/selivandex/fng-signal/internal/pipeline"
	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/worker"
)

const shutdownTimeout = 30 * time.Second

var (
	serveFlags signalFlags
	runNow     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signal on a cron schedule",
	Long: `Keeps running and computes the signal on SCHEDULE_CRON in SCHEDULE_TIMEZONE
(default: 22:00 New York time on weekdays). Failed runs are logged and the
next scheduled run proceeds as usual. With HEALTH_ENABLED=true, liveness and
readiness probes are served on HEALTH_ADDR.`,
	RunE: serve,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().BoolVar(&runNow, "run-now", false, "run once immediately before waiting for the schedule")
}

// trackedRun reports every pipeline run to the health server
type trackedRun struct {
	pipeline *pipeline.Pipeline
	health   *health.Server
}

func (t *trackedRun) Name() string {
	return t.pipeline.Name()
}

func (t *trackedRun) Run(ctx context.Context) error {
	result, err := t.pipeline.Execute(ctx)
	if t.health != nil {
		t.health.RecordRun(result, err)
	}
	return err
}

func serve(cmd *cobra.Command, args []string) error {
	if err := serveFlags.apply(cmd, cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	job := &trackedRun{pipeline: a.pipeline}
	if cfg.Health.Enabled {
		job.health = health.NewServer(cfg.Health.Addr, a.checks)
		go func() {
			if err := job.health.Start(); err != nil {
				logger.Error("health server failed", zap.Error(err))
			}
		}()
	}

	scheduled, err := worker.NewScheduledWorker(job, cfg.Schedule.Cron, loc)
	if err != nil {
		return err
	}

	if runNow {
		scheduled.RunNow(ctx)
	}

	scheduled.Start(ctx)
	if job.health != nil {
		job.health.SetReady(true)
	}

	<-ctx.Done()
	logger.Info("received shutdown signal", zap.String("worker", job.Name()))

	if job.health != nil {
		job.health.SetReady(false)
	}
	scheduled.Stop(shutdownTimeout)

	if job.health != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := job.health.Stop(shutdownCtx); err != nil {
			logger.Warn("health server shutdown failed", zap.Error(err))
		}
	}

	return nil
}
