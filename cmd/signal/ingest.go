package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/internal/adapters/database"
	"github.com/selivandex/fng-signal/internal/adapters/exchange"
	"github.com/selivandex/fng-signal/internal/adapters/market"
	"github.com/selivandex/fng-signal/internal/adapters/price"
	"github.com/selivandex/fng-signal/internal/ingest"
	"github.com/selivandex/fng-signal/pkg/retry"
)

var (
	ingestSource  string
	ingestSymbols []string
	ingestDays    int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Copy daily price history into ClickHouse",
	Long: `Fetches daily bars from Yahoo or the configured exchange and stores them in
ClickHouse market_ohlcv, the table read by PRICE_PROVIDER=clickhouse.
Re-ingesting an overlapping window replaces the stored rows.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", config.ProviderYahoo, "upstream provider: yahoo or exchange")
	ingestCmd.Flags().StringSliceVar(&ingestSymbols, "symbols", nil, "symbols to ingest (default SIGNAL_TICKER)")
	ingestCmd.Flags().IntVar(&ingestDays, "days", 0, "daily bars per symbol (default SIGNAL_LOOKBACK_DAYS)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	var source price.HistoryProvider
	switch ingestSource {
	case config.ProviderYahoo:
		source = price.NewYahooProvider(&cfg.Price)
	case config.ProviderExchange:
		ex, err := exchange.New(&cfg.Exchange)
		if err != nil {
			return err
		}
		source = price.NewExchangeProvider(ex)
	default:
		return fmt.Errorf("unknown ingest source %q (expected yahoo or exchange)", ingestSource)
	}

	symbols := ingestSymbols
	if len(symbols) == 0 {
		symbols = []string{cfg.Signal.Ticker}
	}
	days := ingestDays
	if days <= 0 {
		days = cfg.Signal.LookbackDays
	}

	chDB, err := database.NewClickHouse(&cfg.ClickHouse)
	if err != nil {
		return err
	}
	defer chDB.Close()

	repo := market.NewRepository(chDB.DB())
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	worker := ingest.NewCandlesWorker(source, repo, symbols, days, retry.Policy{
		Attempts:  cfg.Retry.Attempts,
		BaseDelay: cfg.Retry.BaseDelay,
	})
	return worker.Run(ctx)
}
