package exchange

import (
	"context"
	"fmt"
	"strings"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
)

// fetchFunc is the one ccxt call the adapter needs
type fetchFunc func(symbol, timeframe string, limit int64) ([]ccxt.OHLCV, error)

// Adapter serves daily bars from a ccxt exchange. ccxt calls are not
// context aware, so a canceled ctx abandons the call instead of waiting.
type Adapter struct {
	name  string
	quote string
	fetch fetchFunc
}

// NewBinanceAdapter creates new Binance adapter (spot market data)
func NewBinanceAdapter(cfg *config.ExchangeConfig) *Adapter {
	ex := ccxt.NewBinance(options(cfg, "spot"))

	logger.Info("Binance adapter initialized", zap.Bool("testnet", cfg.Testnet))

	return newAdapter("binance", cfg.Quote, func(symbol, timeframe string, limit int64) ([]ccxt.OHLCV, error) {
		return ex.FetchOHLCV(symbol, ccxt.WithFetchOHLCVTimeframe(timeframe), ccxt.WithFetchOHLCVLimit(limit))
	})
}

// NewBybitAdapter creates new Bybit adapter (spot market data)
func NewBybitAdapter(cfg *config.ExchangeConfig) *Adapter {
	ex := ccxt.NewBybit(options(cfg, "spot"))

	logger.Info("Bybit adapter initialized", zap.Bool("testnet", cfg.Testnet))

	return newAdapter("bybit", cfg.Quote, func(symbol, timeframe string, limit int64) ([]ccxt.OHLCV, error) {
		return ex.FetchOHLCV(symbol, ccxt.WithFetchOHLCVTimeframe(timeframe), ccxt.WithFetchOHLCVLimit(limit))
	})
}

func newAdapter(name, quote string, fetch fetchFunc) *Adapter {
	return &Adapter{name: name, quote: quote, fetch: fetch}
}

func (a *Adapter) GetName() string {
	return a.name
}

func (a *Adapter) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]models.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unified := UnifiedSymbol(symbol, a.quote)

	type reply struct {
		bars []ccxt.OHLCV
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		bars, err := a.fetch(unified, timeframe, int64(limit))
		done <- reply{bars: bars, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s %s from %s: %w", unified, timeframe, a.name, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("fetch %s %s from %s: %w", unified, timeframe, a.name, r.err)
		}

		logger.Debug("ohlcv fetched",
			zap.String("exchange", a.name),
			zap.String("symbol", unified),
			zap.Int("bars", len(r.bars)),
		)
		return toPricePoints(r.bars), nil
	}
}

// UnifiedSymbol maps a ticker to a ccxt unified symbol. A bare base asset gets
// the quote currency appended; Yahoo-style BTC-USD becomes BTC/USD.
func UnifiedSymbol(ticker, quote string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	switch {
	case strings.Contains(ticker, "/"):
		return ticker
	case strings.Contains(ticker, "-"):
		return strings.Replace(ticker, "-", "/", 1)
	case quote != "":
		return ticker + "/" + strings.ToUpper(quote)
	default:
		return ticker
	}
}
