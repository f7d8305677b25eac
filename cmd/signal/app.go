package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/internal/adapters/database"
	"github.com/selivandex/fng-signal/internal/adapters/exchange"
	"github.com/selivandex/fng-signal/internal/adapters/feargreed"
	"github.com/selivandex/fng-signal/internal/adapters/market"
	"github.com/selivandex/fng-signal/internal/adapters/price"
	redisAdapter "github.com/selivandex/fng-signal/internal/adapters/redis"
	"github.com/selivandex/fng-signal/internal/adapters/telegram"
	"github.com/selivandex/fng-signal/internal/channels"
	"github.com/selivandex/fng-signal/internal/health"
	"github.com/selivandex/fng-signal/internal/pipeline"
	"github.com/selivandex/fng-signal/internal/strategy"
	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/retry"
)

// app owns the connections opened for a pipeline
type app struct {
	pipeline *pipeline.Pipeline
	closers  []func() error
	checks   map[string]health.Checker
}

// Close releases connections in reverse order of opening
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("failed to close resource", zap.Error(err))
		}
	}
}

// newApp wires the pipeline from configuration
func newApp(cfg *config.Config) (_ *app, err error) {
	a := &app{checks: make(map[string]health.Checker)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	classifier, err := strategy.New(cfg.Signal.Strategy)
	if err != nil {
		return nil, err
	}

	prices, err := a.initPriceProvider(cfg)
	if err != nil {
		return nil, err
	}

	var sentiment feargreed.Source = feargreed.NewClient(&cfg.FearGreed)
	var locks redisAdapter.LockFactory = redisAdapter.NewNoopLockFactory()

	if cfg.Redis.Enabled {
		redisClient, err := redisAdapter.New(context.Background(), &cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisClient.Close)
		a.checks["redis"] = redisClient.Health

		sentiment = feargreed.NewCachedSource(sentiment, redisClient, cfg.FearGreed.CacheTTL)
		locks = redisClient.LockFactory()
		logger.Info("✅ Redis run locks and sentiment cache enabled")
	}

	channelSource, err := a.initChannelSource(cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := telegram.NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load message templates: %w", err)
	}

	deps := pipeline.Deps{
		Prices:     prices,
		Sentiment:  sentiment,
		Classifier: classifier,
		Channels:   channelSource,
		Renderer:   renderer,
		Locks:      locks,
	}

	if !cfg.Signal.DryRun {
		notifier, err := telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			return nil, err
		}
		deps.Notifier = notifier
	}

	a.pipeline = pipeline.New(pipeline.Options{
		Ticker:        cfg.Signal.Ticker,
		LookbackDays:  cfg.Signal.LookbackDays,
		SentimentDays: cfg.Signal.SentimentDays,
		NotifyAlways:  cfg.Signal.NotifyAlways,
		DryRun:        cfg.Signal.DryRun,
		Retry: retry.Policy{
			Attempts:  cfg.Retry.Attempts,
			BaseDelay: cfg.Retry.BaseDelay,
		},
	}, deps)

	logger.Info("pipeline ready",
		zap.String("ticker", cfg.Signal.Ticker),
		zap.String("strategy", classifier.Name()),
		zap.String("price_provider", prices.GetName()),
		zap.String("channel_source", cfg.Telegram.ChannelSource),
		zap.Bool("dry_run", cfg.Signal.DryRun),
	)

	return a, nil
}

func (a *app) initPriceProvider(cfg *config.Config) (price.HistoryProvider, error) {
	switch cfg.Price.Provider {
	case config.ProviderExchange:
		ex, err := exchange.New(&cfg.Exchange)
		if err != nil {
			return nil, err
		}
		return price.NewExchangeProvider(ex), nil

	case config.ProviderClickHouse:
		chDB, err := database.NewClickHouse(&cfg.ClickHouse)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, chDB.Close)
		a.checks["clickhouse"] = chDB.Health
		return price.NewClickHouseProvider(market.NewRepository(chDB.DB())), nil

	default:
		return price.NewYahooProvider(&cfg.Price), nil
	}
}

func (a *app) initChannelSource(cfg *config.Config) (channels.Source, error) {
	if cfg.Telegram.ChannelSource != config.ChannelSourcePostgres {
		return channels.NewStaticSource(&cfg.Telegram), nil
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	a.checks["database"] = db.Health

	return channels.NewRepository(db.DB()), nil
}
