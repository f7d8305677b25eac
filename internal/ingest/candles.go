package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/adapters/price"
	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
	"github.com/selivandex/fng-signal/pkg/retry"
)

// DailyTimeframe is the timeframe label stored with ingested bars
const DailyTimeframe = "1d"

// CandleWriter persists daily bars
type CandleWriter interface {
	SaveCandles(ctx context.Context, symbol, timeframe string, points []models.PricePoint) error
}

// CandlesWorker copies daily history from an upstream provider into the
// candle store read by the ClickHouse price provider
type CandlesWorker struct {
	source  price.HistoryProvider
	writer  CandleWriter
	symbols []string
	days    int
	retry   retry.Policy
}

// NewCandlesWorker creates new candles worker
func NewCandlesWorker(
	source price.HistoryProvider,
	writer CandleWriter,
	symbols []string,
	days int,
	policy retry.Policy,
) *CandlesWorker {
	return &CandlesWorker{
		source:  source,
		writer:  writer,
		symbols: symbols,
		days:    days,
		retry:   policy,
	}
}

// Name returns worker name
func (cw *CandlesWorker) Name() string {
	return "candles_ingest:" + cw.source.GetName()
}

// Run fetches and stores every symbol. A failing symbol does not stop the
// others; the returned error reports how many failed.
func (cw *CandlesWorker) Run(ctx context.Context) error {
	startTime := time.Now()
	totalStored := 0
	failed := 0

	for _, symbol := range cw.symbols {
		stored, err := cw.ingest(ctx, symbol)
		if err != nil {
			logger.Warn("failed to ingest candles",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			failed++
			continue
		}
		totalStored += stored
	}

	logger.Info("candles ingested",
		zap.String("source", cw.source.GetName()),
		zap.Int("symbols", len(cw.symbols)),
		zap.Int("stored", totalStored),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(startTime)),
	)

	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed to ingest", failed, len(cw.symbols))
	}
	return nil
}

func (cw *CandlesWorker) ingest(ctx context.Context, symbol string) (int, error) {
	var points []models.PricePoint
	err := retry.Do(ctx, "candles "+symbol, cw.retry, func(ctx context.Context) error {
		var err error
		points, err = cw.source.FetchHistory(ctx, symbol, cw.days)
		if errors.Is(err, price.ErrNoData) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	if err := cw.writer.SaveCandles(ctx, symbol, DailyTimeframe, points); err != nil {
		return 0, err
	}
	return len(points), nil
}
