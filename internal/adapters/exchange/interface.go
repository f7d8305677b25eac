package exchange

import (
	"context"
	"fmt"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/models"
)

// DailyTimeframe is the ccxt timeframe of one calendar-day candle
const DailyTimeframe = "1d"

// Exchange represents the market-data surface of an exchange
type Exchange interface {
	// GetName returns exchange name
	GetName() string

	// FetchOHLCV returns up to limit candles, oldest first
	FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]models.PricePoint, error)
}

// New creates the adapter for the configured exchange
func New(cfg *config.ExchangeConfig) (Exchange, error) {
	switch cfg.Name {
	case "binance":
		return NewBinanceAdapter(cfg), nil
	case "bybit":
		return NewBybitAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported exchange %q", cfg.Name)
	}
}

func options(cfg *config.ExchangeConfig, defaultType string) map[string]interface{} {
	opts := map[string]interface{}{
		"options": map[string]interface{}{
			"defaultType":             defaultType,
			"adjustForTimeDifference": true,
		},
	}
	if cfg.APIKey != "" {
		opts["apiKey"] = cfg.APIKey
		opts["secret"] = cfg.Secret
	}
	if cfg.Testnet {
		opts["testnet"] = true
	}
	return opts
}
