package channels

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/fng-signal/pkg/models"
)

// Repository handles the signal_channels registry in Postgres
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new channel repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListChannels returns the enabled channels of ticker
func (r *Repository) ListChannels(ctx context.Context, ticker string) ([]models.Channel, error) {
	query := `
		SELECT chat_id, debug
		FROM signal_channels
		WHERE ticker = $1 AND enabled
		ORDER BY id
	`

	var channels []models.Channel
	if err := r.db.SelectContext(ctx, &channels, query, ticker); err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	return channels, nil
}

// AddChannel registers (or re-enables) a channel for ticker
func (r *Repository) AddChannel(ctx context.Context, ticker string, ch models.Channel) error {
	query := `
		INSERT INTO signal_channels (ticker, chat_id, debug, enabled)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (ticker, chat_id)
		DO UPDATE SET
			debug = EXCLUDED.debug,
			enabled = TRUE
	`

	if _, err := r.db.ExecContext(ctx, query, ticker, ch.ChatID, ch.Debug); err != nil {
		return fmt.Errorf("failed to add channel: %w", err)
	}
	return nil
}

// DisableChannel stops notifications to a channel without deleting it
func (r *Repository) DisableChannel(ctx context.Context, ticker, chatID string) (bool, error) {
	query := `
		UPDATE signal_channels
		SET enabled = FALSE
		WHERE ticker = $1 AND chat_id = $2 AND enabled
	`

	res, err := r.db.ExecContext(ctx, query, ticker, chatID)
	if err != nil {
		return false, fmt.Errorf("failed to disable channel: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
