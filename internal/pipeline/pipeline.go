package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/fng-signal/internal/adapters/feargreed"
	"github.com/selivandex/fng-signal/internal/adapters/price"
	"github.com/selivandex/fng-signal/internal/adapters/redis"
	"github.com/selivandex/fng-signal/internal/adapters/telegram"
	"github.com/selivandex/fng-signal/internal/channels"
	"github.com/selivandex/fng-signal/internal/features"
	"github.com/selivandex/fng-signal/internal/indicators"
	"github.com/selivandex/fng-signal/internal/sentiment"
	"github.com/selivandex/fng-signal/internal/strategy"
	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
	"github.com/selivandex/fng-signal/pkg/retry"
)

// comparedRows is how many trailing complete rows the change detector needs
const comparedRows = 2

// Notifier delivers a rendered message to one chat
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// Renderer turns a detected change into message texts
type Renderer interface {
	RenderSubscriber(data telegram.MessageData) (string, error)
	RenderDebug(data telegram.MessageData) (string, error)
}

// Options are the per-run parameters
type Options struct {
	Ticker        string
	LookbackDays  int
	SentimentDays int
	NotifyAlways  bool
	DryRun        bool
	Retry         retry.Policy
}

// Deps are the collaborators of a run
type Deps struct {
	Prices     price.HistoryProvider
	Sentiment  feargreed.Source
	Classifier strategy.Classifier
	Channels   channels.Source
	Notifier   Notifier // may be nil in dry-run mode
	Renderer   Renderer
	Locks      redis.LockFactory
}

// Pipeline computes the daily signal for one ticker and notifies on change
type Pipeline struct {
	opts       Options
	deps       Deps
	calculator *indicators.Calculator
	now        func() time.Time
}

// New creates new signal pipeline
func New(opts Options, deps Deps) *Pipeline {
	if deps.Locks == nil {
		deps.Locks = redis.NewNoopLockFactory()
	}

	return &Pipeline{
		opts:       opts,
		deps:       deps,
		calculator: indicators.NewCalculator(),
		now:        time.Now,
	}
}

// Name returns worker name for logging
func (p *Pipeline) Name() string {
	return fmt.Sprintf("signal:%s:%s", p.opts.Ticker, p.deps.Classifier.Name())
}

// Run executes one iteration (worker.Worker)
func (p *Pipeline) Run(ctx context.Context) error {
	_, err := p.Execute(ctx)
	return err
}

// Execute performs one full run: fetch, compute, detect, notify.
// A returned error means no signal was computed.
func (p *Pipeline) Execute(ctx context.Context) (result *models.RunResult, err error) {
	start := p.now()
	today := models.Day(start.UTC())

	result = &models.RunResult{
		Ticker:   p.opts.Ticker,
		Strategy: p.deps.Classifier.Name(),
	}

	if !p.opts.DryRun {
		lock := p.deps.Locks.CreateRunLock(p.opts.Ticker, today)
		acquired, lockErr := lock.TryAcquire(ctx)
		if lockErr != nil {
			return nil, fmt.Errorf("run lock: %w", lockErr)
		}
		if !acquired {
			logger.Info("run already done or in progress elsewhere, skipping",
				zap.String("ticker", p.opts.Ticker),
				zap.String("lock", lock.Name()),
			)
			result.Status = models.StatusSkipped
			return result, nil
		}

		// keep the lock after success so the day is not processed twice;
		// a failed run or an undelivered change leaves the day open for a retry
		defer func() {
			if err != nil || result.Status == models.StatusDeliveryFailed {
				_ = lock.Release(context.WithoutCancel(ctx))
			}
		}()
	}

	points, payload, degraded, err := p.fetch(ctx, today)
	if err != nil {
		return nil, err
	}

	readings := p.readings(payload, degraded)
	result.SentimentDegraded = readings == nil

	trend := p.calculator.MovingAverages(points)
	rows, err := features.Build(trend, readings, comparedRows)
	if err != nil {
		return nil, err
	}

	result.Rows = strategy.Annotate(p.deps.Classifier, rows)

	change, err := strategy.DetectChange(result.Rows)
	if err != nil {
		return nil, err
	}
	result.Change = &change

	p.notify(ctx, result)

	if result.Status == models.StatusDeliveryFailed {
		logger.Error("signal change not delivered to any subscriber",
			zap.String("ticker", result.Ticker),
			zap.String("decision", change.Current.Decision.Key()),
			zap.Errors("errors", result.DeliveryErrors),
		)
	}

	logger.Info("signal run finished",
		zap.String("ticker", result.Ticker),
		zap.String("strategy", result.Strategy),
		zap.String("status", string(result.Status)),
		zap.String("decision", change.Current.Decision.Key()),
		zap.String("regime", string(change.Current.Regime)),
		zap.Bool("changed", change.Notify),
		zap.Bool("sentiment_degraded", result.SentimentDegraded),
		zap.Int("delivered", result.Delivered),
		zap.Int("delivery_errors", len(result.DeliveryErrors)),
		zap.Duration("duration", p.now().Sub(start)),
	)

	return result, nil
}

// fetch downloads price history and the sentiment payload concurrently.
// Price failure is fatal and cancels the sentiment fetch; sentiment failure
// only degrades the run.
func (p *Pipeline) fetch(ctx context.Context, today time.Time) ([]models.PricePoint, []byte, bool, error) {
	var (
		points   []models.PricePoint
		payload  []byte
		degraded bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return retry.Do(gctx, "price history", p.opts.Retry, func(ctx context.Context) error {
			var err error
			points, err = p.deps.Prices.FetchHistory(ctx, p.opts.Ticker, p.opts.LookbackDays)
			if errors.Is(err, price.ErrNoData) {
				return retry.Permanent(err)
			}
			return err
		})
	})

	g.Go(func() error {
		since := today.AddDate(0, 0, -p.opts.SentimentDays)
		err := retry.Do(gctx, "sentiment history", p.opts.Retry, func(ctx context.Context) error {
			var err error
			payload, err = p.deps.Sentiment.FetchHistory(ctx, since)
			return err
		})
		if err != nil {
			logger.Warn("sentiment unavailable, continuing without it",
				zap.String("ticker", p.opts.Ticker),
				zap.Error(err),
			)
			degraded = true
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, false, fmt.Errorf("fetch price history for %s: %w", p.opts.Ticker, err)
	}

	return points, payload, degraded, nil
}

// readings normalizes the sentiment payload; nil means sentiment is unavailable
func (p *Pipeline) readings(payload []byte, degraded bool) []models.SentimentPoint {
	if degraded {
		return nil
	}

	readings, err := sentiment.Normalize(payload)
	if err != nil {
		logger.Warn("malformed sentiment payload, continuing without it",
			zap.String("ticker", p.opts.Ticker),
			zap.Error(err),
		)
		return nil
	}

	return readings
}

// notify renders and delivers messages. Delivery failures are recorded on the
// result and never invalidate the computed signal, but a change that reached
// no subscriber at all turns the status into delivery_failed.
func (p *Pipeline) notify(ctx context.Context, result *models.RunResult) {
	change := *result.Change
	shouldNotify := change.Notify || p.opts.NotifyAlways

	result.Status = models.StatusUnchanged
	if shouldNotify {
		result.Status = models.StatusNotified
	}

	var subscriberDelivered, subscriberFailed int
	defer func() {
		if shouldNotify && result.Status == models.StatusNotified && subscriberDelivered == 0 && subscriberFailed > 0 {
			result.Status = models.StatusDeliveryFailed
		}
	}()

	targets, err := p.deps.Channels.ListChannels(ctx, p.opts.Ticker)
	if err != nil {
		logger.Error("failed to list channels", zap.String("ticker", p.opts.Ticker), zap.Error(err))
		result.DeliveryErrors = append(result.DeliveryErrors, err)
		subscriberFailed++
		return
	}
	subscribers, debug := channels.Split(targets)

	data := telegram.NewMessageData(p.opts.Ticker, result.Strategy, change, result.SentimentDegraded)

	var outgoing []message
	if shouldNotify {
		text, err := p.deps.Renderer.RenderSubscriber(data)
		if err != nil {
			result.DeliveryErrors = append(result.DeliveryErrors, err)
			subscriberFailed++
		} else {
			for _, ch := range subscribers {
				outgoing = append(outgoing, message{chatID: ch.ChatID, text: text, subscriber: true})
			}
		}
	}

	if len(debug) > 0 {
		text, err := p.deps.Renderer.RenderDebug(data)
		if err != nil {
			result.DeliveryErrors = append(result.DeliveryErrors, err)
		} else {
			for _, ch := range debug {
				outgoing = append(outgoing, message{chatID: ch.ChatID, text: text})
			}
		}
	}

	if p.opts.DryRun || p.deps.Notifier == nil {
		for _, m := range outgoing {
			logger.Info("dry run, message not sent",
				zap.String("chat_id", m.chatID),
				zap.String("text", m.text),
			)
		}
		result.Status = models.StatusDryRun
		return
	}

	for _, m := range outgoing {
		if err := p.deps.Notifier.Send(ctx, m.chatID, m.text); err != nil {
			result.DeliveryErrors = append(result.DeliveryErrors, err)
			if m.subscriber {
				subscriberFailed++
			}
			continue
		}
		result.Delivered++
		if m.subscriber {
			subscriberDelivered++
		}
	}
}

type message struct {
	chatID     string
	text       string
	subscriber bool
}
