package channels

import (
	"context"
	"strings"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/models"
)

// Source lists the notification targets of a ticker
type Source interface {
	ListChannels(ctx context.Context, ticker string) ([]models.Channel, error)
}

// StaticSource serves channels from configuration; every ticker gets the same set
type StaticSource struct {
	channels []models.Channel
}

// NewStaticSource creates channel source from Telegram configuration
func NewStaticSource(cfg *config.TelegramConfig) *StaticSource {
	var channels []models.Channel
	seen := make(map[models.Channel]bool)

	add := func(ids []string, debug bool) {
		for _, id := range ids {
			ch := models.Channel{ChatID: strings.TrimSpace(id), Debug: debug}
			if ch.ChatID == "" || seen[ch] {
				continue
			}
			seen[ch] = true
			channels = append(channels, ch)
		}
	}
	add(cfg.Channels, false)
	add(cfg.DebugChannels, true)

	return &StaticSource{channels: channels}
}

func (s *StaticSource) ListChannels(ctx context.Context, ticker string) ([]models.Channel, error) {
	out := make([]models.Channel, len(s.channels))
	copy(out, s.channels)
	return out, nil
}

// Split separates subscriber channels from debug channels
func Split(channels []models.Channel) (subscribers, debug []models.Channel) {
	for _, ch := range channels {
		if ch.Debug {
			debug = append(debug, ch)
		} else {
			subscribers = append(subscribers, ch)
		}
	}
	return subscribers, debug
}
