package price

import (
	"context"
	"fmt"

	"github.com/selivandex/fng-signal/pkg/models"
)

// CandleReader reads stored daily candles
type CandleReader interface {
	GetDailyCandles(ctx context.Context, symbol string, limit int) ([]models.PricePoint, error)
}

// ClickHouseProvider implements HistoryProvider from candles already stored in
// ClickHouse by an external collector
type ClickHouseProvider struct {
	repo CandleReader
}

// NewClickHouseProvider creates new stored-candle provider
func NewClickHouseProvider(repo CandleReader) *ClickHouseProvider {
	return &ClickHouseProvider{repo: repo}
}

func (c *ClickHouseProvider) GetName() string {
	return "clickhouse"
}

func (c *ClickHouseProvider) FetchHistory(ctx context.Context, ticker string, lookback int) ([]models.PricePoint, error) {
	points, err := c.repo.GetDailyCandles(ctx, ticker, lookback)
	if err != nil {
		return nil, fmt.Errorf("failed to read candles: %w", err)
	}

	points = normalize(points, lookback)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	return points, nil
}
