package market

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
)

// DailyTimeframe is the timeframe label of daily candles in market_ohlcv
const DailyTimeframe = "1d"

// Repository handles daily market data storage in ClickHouse
type Repository struct {
	ch *sqlx.DB // ClickHouse connection
}

// NewRepository creates new market repository
func NewRepository(ch *sqlx.DB) *Repository {
	return &Repository{ch: ch}
}

// candleRow is one market_ohlcv row as stored
type candleRow struct {
	Timestamp time.Time `db:"timestamp"`
	Open      float64   `db:"open"`
	High      float64   `db:"high"`
	Low       float64   `db:"low"`
	Close     float64   `db:"close"`
	Volume    float64   `db:"volume"`
}

// GetCandles retrieves the latest candles from ClickHouse, oldest first
func (r *Repository) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.PricePoint, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM market_ohlcv FINAL
		WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	var rows []candleRow
	if err := r.ch.SelectContext(ctx, &rows, query, symbol, timeframe, limit); err != nil {
		return nil, fmt.Errorf("failed to query candles from ClickHouse: %w", err)
	}

	points := make([]models.PricePoint, len(rows))
	// Reverse to chronological order (oldest first)
	for i, row := range rows {
		points[len(rows)-1-i] = models.PricePoint{
			Date:   models.Day(row.Timestamp.UTC()),
			Open:   models.NewDecimal(row.Open),
			High:   models.NewDecimal(row.High),
			Low:    models.NewDecimal(row.Low),
			Close:  models.NewDecimal(row.Close),
			Volume: models.NewDecimal(row.Volume),
		}
	}

	return points, nil
}

// GetDailyCandles retrieves the latest daily candles for symbol
func (r *Repository) GetDailyCandles(ctx context.Context, symbol string, limit int) ([]models.PricePoint, error) {
	points, err := r.GetCandles(ctx, symbol, DailyTimeframe, limit)
	if err != nil {
		return nil, err
	}

	if len(points) < limit {
		count, err := r.GetCandleCount(ctx, symbol, DailyTimeframe)
		if err == nil {
			logger.Warn("stored daily history shorter than lookback",
				zap.String("symbol", symbol),
				zap.Int("stored", count),
				zap.Int("lookback", limit),
			)
		}
	}

	return points, nil
}

// GetCandleCount returns number of stored candles for symbol/timeframe
func (r *Repository) GetCandleCount(ctx context.Context, symbol, timeframe string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM market_ohlcv FINAL
		WHERE symbol = ? AND timeframe = ?
	`

	var count int
	err := r.ch.GetContext(ctx, &count, query, symbol, timeframe)
	return count, err
}

// schema replaces rows with the same symbol, timeframe and timestamp, so
// re-ingesting an overlapping window is idempotent
const schema = `
	CREATE TABLE IF NOT EXISTS market_ohlcv (
		timestamp DateTime,
		symbol    LowCardinality(String),
		timeframe LowCardinality(String),
		open      Float64,
		high      Float64,
		low       Float64,
		close     Float64,
		volume    Float64
	)
	ENGINE = ReplacingMergeTree
	ORDER BY (symbol, timeframe, timestamp)
`

// EnsureSchema creates the market_ohlcv table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.ch.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create market_ohlcv: %w", err)
	}
	return nil
}

// SaveCandles saves daily price points for symbol in one batch
func (r *Repository) SaveCandles(ctx context.Context, symbol, timeframe string, points []models.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO market_ohlcv
		(timestamp, symbol, timeframe, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err = stmt.ExecContext(ctx,
			p.Date,
			symbol,
			timeframe,
			p.Open.InexactFloat64(),
			p.High.InexactFloat64(),
			p.Low.InexactFloat64(),
			p.Close.InexactFloat64(),
			p.Volume.InexactFloat64(),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved candles to ClickHouse",
		zap.String("symbol", symbol),
		zap.Int("count", len(points)),
	)

	return nil
}
