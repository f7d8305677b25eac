package main

import (
	"github.com/spf13/cobra"

	"github.com/selivandex/fng-signal/internal/adapters/config"
)

// signalFlags are the run parameters that can override the environment
type signalFlags struct {
	ticker       string
	strategy     string
	provider     string
	lookback     int
	dryRun       bool
	notifyAlways bool
}

func (f *signalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ticker, "ticker", "", "ticker symbol (overrides SIGNAL_TICKER)")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "threshold or decision_table (overrides SIGNAL_STRATEGY)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "yahoo, exchange or clickhouse (overrides PRICE_PROVIDER)")
	cmd.Flags().IntVar(&f.lookback, "lookback", 0, "price history rows to fetch (overrides SIGNAL_LOOKBACK_DAYS)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "render messages without sending them")
	cmd.Flags().BoolVar(&f.notifyAlways, "notify-always", false, "notify subscribers even when the signal is unchanged")
}

// apply overrides cfg with the flags that were set, then validates it
func (f *signalFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("ticker") {
		cfg.Signal.Ticker = f.ticker
	}
	if flags.Changed("strategy") {
		cfg.Signal.Strategy = f.strategy
	}
	if flags.Changed("provider") {
		cfg.Price.Provider = f.provider
	}
	if flags.Changed("lookback") {
		cfg.Signal.LookbackDays = f.lookback
	}
	if flags.Changed("dry-run") {
		cfg.Signal.DryRun = f.dryRun
	}
	if flags.Changed("notify-always") {
		cfg.Signal.NotifyAlways = f.notifyAlways
	}

	return cfg.Validate()
}
