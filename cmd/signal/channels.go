package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selivandex/fng-signal/internal/adapters/database"
	"github.com/selivandex/fng-signal/internal/channels"
	"github.com/selivandex/fng-signal/pkg/models"
)

var (
	channelsTicker string
	channelDebug   bool
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Manage Telegram channels registered in Postgres",
	Long: `Manages the signal_channels table read when TELEGRAM_CHANNEL_SOURCE=postgres.
Chat IDs are @channel usernames or numeric chat IDs.`,
}

var channelsAddCmd = &cobra.Command{
	Use:   "add <chat_id>",
	Short: "Register a channel (or re-enable it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withChannelRepository(func(repo *channels.Repository) error {
			ch := models.Channel{ChatID: args[0], Debug: channelDebug}
			if err := repo.AddChannel(cmdContext(cmd), tickerFor(), ch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s for %s (debug=%t)\n", ch.ChatID, tickerFor(), ch.Debug)
			return nil
		})
	},
}

var channelsRemoveCmd = &cobra.Command{
	Use:   "remove <chat_id>",
	Short: "Stop notifying a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withChannelRepository(func(repo *channels.Repository) error {
			found, err := repo.DisableChannel(cmdContext(cmd), tickerFor(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("channel %s is not registered for %s", args[0], tickerFor())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s for %s\n", args[0], tickerFor())
			return nil
		})
	},
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withChannelRepository(func(repo *channels.Repository) error {
			list, err := repo.ListChannels(cmdContext(cmd), tickerFor())
			if err != nil {
				return err
			}
			for _, ch := range list {
				kind := "subscriber"
				if ch.Debug {
					kind = "debug"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ch.ChatID, kind)
			}
			return nil
		})
	},
}

func init() {
	channelsCmd.PersistentFlags().StringVar(&channelsTicker, "ticker", "", "ticker the channel follows (default SIGNAL_TICKER)")
	channelsAddCmd.Flags().BoolVar(&channelDebug, "debug", false, "send the diagnostic message instead of the signal")

	channelsCmd.AddCommand(channelsAddCmd)
	channelsCmd.AddCommand(channelsRemoveCmd)
	channelsCmd.AddCommand(channelsListCmd)
}

func tickerFor() string {
	if channelsTicker != "" {
		return channelsTicker
	}
	return cfg.Signal.Ticker
}

func withChannelRepository(fn func(repo *channels.Repository) error) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(channels.NewRepository(db.DB()))
}
