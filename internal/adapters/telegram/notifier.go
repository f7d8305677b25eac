package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/logger"
)

// Notifier sends notifications to Telegram chats and channels
type Notifier struct {
	api       *tgbotapi.BotAPI
	parseMode string
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{
		api:       bot,
		parseMode: cfg.ParseMode,
	}, nil
}

// Send delivers text to chatID: "@name" is a public channel username,
// anything else must be a numeric chat id
func (n *Notifier) Send(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := NewMessage(chatID, text, n.parseMode)
	if err != nil {
		return err
	}

	if _, err := n.api.Send(msg); err != nil {
		logger.Error("failed to send telegram message",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("send to %s: %w", chatID, err)
	}

	return nil
}

// NewMessage builds the message config for a channel username or chat id
func NewMessage(chatID, text, parseMode string) (tgbotapi.MessageConfig, error) {
	var msg tgbotapi.MessageConfig

	if strings.HasPrefix(chatID, "@") {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	} else {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return msg, fmt.Errorf("invalid chat id %q: %w", chatID, err)
		}
		msg = tgbotapi.NewMessage(id, text)
	}

	msg.ParseMode = parseMode
	return msg, nil
}
