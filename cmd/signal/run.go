package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/selivandex/fng-signal/pkg/models"
)

var runFlags signalFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute today's signal once and notify on change",
	Long: `Fetches price history and Fear & Greed readings, classifies the two most
recent complete days and notifies subscribers when the decision changed.
Exits non-zero when no signal could be computed.`,
	RunE: runOnce,
}

func init() {
	runFlags.register(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	if err := runFlags.apply(cmd, cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Execute(ctx)
	if err != nil {
		return err
	}

	printResult(cmd, result)
	return nil
}

// printResult writes a one-screen summary of the run to stdout
func printResult(cmd *cobra.Command, result *models.RunResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s [%s]: %s\n", result.Ticker, result.Strategy, result.Status)
	if result.Change == nil {
		return
	}

	for _, row := range []models.SignalRow{result.Change.Previous, result.Change.Current} {
		fng := "n/a"
		if row.Sentiment != nil {
			fng = fmt.Sprintf("%d (%s)", row.Sentiment.Value, row.Sentiment.Rating)
		}
		fmt.Fprintf(out, "  %s close=%s fng=%s regime=%s decision=%q\n",
			models.DateKey(row.Date), row.Close.StringFixed(2), fng, row.Regime, row.Decision.Key())
	}

	if result.SentimentDegraded {
		fmt.Fprintln(out, "  sentiment unavailable, decisions made without it")
	}
	fmt.Fprintf(out, "  delivered=%d errors=%d\n", result.Delivered, len(result.DeliveryErrors))
	for _, err := range result.DeliveryErrors {
		fmt.Fprintf(out, "    %v\n", err)
	}
}

// cmdContext returns the command context or a background one
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
