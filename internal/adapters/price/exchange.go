package price

import (
	"context"
	"fmt"

	"github.com/selivandex/fng-signal/internal/adapters/exchange"
	"github.com/selivandex/fng-signal/pkg/models"
)

// ExchangeProvider implements HistoryProvider on top of a ccxt exchange adapter.
// The adapter maps tickers to unified symbols (BTC -> BTC/USDT).
type ExchangeProvider struct {
	exchange exchange.Exchange
}

// NewExchangeProvider creates new exchange-backed provider
func NewExchangeProvider(ex exchange.Exchange) *ExchangeProvider {
	return &ExchangeProvider{exchange: ex}
}

func (e *ExchangeProvider) GetName() string {
	return "exchange:" + e.exchange.GetName()
}

func (e *ExchangeProvider) FetchHistory(ctx context.Context, ticker string, lookback int) ([]models.PricePoint, error) {
	points, err := e.exchange.FetchOHLCV(ctx, ticker, exchange.DailyTimeframe, lookback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.exchange.GetName(), err)
	}

	points = normalize(points, lookback)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	return points, nil
}
