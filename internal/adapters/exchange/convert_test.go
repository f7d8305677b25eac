package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"

	"github.com/selivandex/fng-signal/internal/adapters/config"
)

func TestToPricePoints(t *testing.T) {
	// 2024-06-14 00:00:00 UTC
	ts := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC).UnixMilli()

	points := toPricePoints([]ccxt.OHLCV{
		{Timestamp: ts, Open: 100, High: 110, Low: 95, Close: 105.5, Volume: 1234},
	})

	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}

	p := points[0]
	if got := p.Date.Format("2006-01-02"); got != "2024-06-14" {
		t.Errorf("Expected 2024-06-14, got %s", got)
	}
	if p.Close.String() != "105.5" {
		t.Errorf("Expected close 105.5, got %s", p.Close)
	}
	if p.Volume.IntPart() != 1234 {
		t.Errorf("Expected volume 1234, got %s", p.Volume)
	}
}

func TestNew_UnsupportedExchange(t *testing.T) {
	if _, err := New(&config.ExchangeConfig{Name: "kraken"}); err == nil {
		t.Error("Expected error for unsupported exchange")
	}
}

func TestOptions(t *testing.T) {
	opts := options(&config.ExchangeConfig{APIKey: "k", Secret: "s", Testnet: true}, "spot")

	if opts["apiKey"] != "k" || opts["secret"] != "s" {
		t.Errorf("Credentials not set: %v", opts)
	}
	if opts["testnet"] != true {
		t.Error("Expected testnet option")
	}

	public := options(&config.ExchangeConfig{}, "spot")
	if _, ok := public["apiKey"]; ok {
		t.Error("Public access should not carry credentials")
	}
}

func TestUnifiedSymbol(t *testing.T) {
	tests := []struct {
		ticker string
		quote  string
		want   string
	}{
		{"BTC", "USDT", "BTC/USDT"},
		{"eth", "usdt", "ETH/USDT"},
		{"BTC-USD", "USDT", "BTC/USD"},
		{"SOL/USDC", "USDT", "SOL/USDC"},
		{"BTC", "", "BTC"},
	}

	for _, tt := range tests {
		if got := UnifiedSymbol(tt.ticker, tt.quote); got != tt.want {
			t.Errorf("UnifiedSymbol(%q, %q) = %q, want %q", tt.ticker, tt.quote, got, tt.want)
		}
	}
}

func TestAdapter_FetchOHLCV(t *testing.T) {
	var gotSymbol, gotTimeframe string
	var gotLimit int64

	a := newAdapter("fake", "USDT", func(symbol, timeframe string, limit int64) ([]ccxt.OHLCV, error) {
		gotSymbol, gotTimeframe, gotLimit = symbol, timeframe, limit
		return []ccxt.OHLCV{{Timestamp: 0, Close: 42}}, nil
	})

	points, err := a.FetchOHLCV(context.Background(), "BTC", DailyTimeframe, 250)
	if err != nil {
		t.Fatalf("FetchOHLCV failed: %v", err)
	}

	if gotSymbol != "BTC/USDT" || gotTimeframe != "1d" || gotLimit != 250 {
		t.Errorf("Unexpected call %s %s %d", gotSymbol, gotTimeframe, gotLimit)
	}
	if len(points) != 1 || points[0].Close.IntPart() != 42 {
		t.Errorf("Unexpected points %+v", points)
	}
}

func TestAdapter_FetchOHLCVError(t *testing.T) {
	a := newAdapter("fake", "USDT", func(symbol, timeframe string, limit int64) ([]ccxt.OHLCV, error) {
		return nil, errors.New("bad symbol")
	})

	if _, err := a.FetchOHLCV(context.Background(), "NOPE", DailyTimeframe, 10); err == nil {
		t.Error("Expected error")
	}
}

func TestAdapter_CanceledContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	a := newAdapter("fake", "USDT", func(symbol, timeframe string, limit int64) ([]ccxt.OHLCV, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := a.FetchOHLCV(ctx, "BTC", DailyTimeframe, 10); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
