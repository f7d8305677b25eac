package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/logger"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "signal",
	Short: "Daily Fear & Greed investment signal",
	Long: `Computes a daily BUY/WAIT signal for one ticker from its 50/100/200 day
moving averages and the CNN Fear & Greed index, and posts it to Telegram
when it changes.

Commands:
    run        compute the signal once and notify
    serve      run on a cron schedule
    migrate    apply or roll back database migrations
    channels   manage Postgres-registered Telegram channels
    ingest     copy daily price history into ClickHouse
`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(ingestCmd)
}

// initConfig loads the dotenv file (if any), reads configuration and
// initializes the logger. Validation is left to commands that need it.
func initConfig(cmd *cobra.Command, args []string) error {
	// A missing file is fine, the environment may carry everything
	_ = godotenv.Load(envFile)

	var err error
	cfg, err = config.Parse()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Options{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Format: cfg.Logging.Format,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}
