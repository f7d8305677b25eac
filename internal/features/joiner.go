package features

import (
	"errors"
	"fmt"

	"github.com/selivandex/fng-signal/internal/sentiment"
	"github.com/selivandex/fng-signal/pkg/models"
)

// ErrInsufficientHistory means the price history was too short to produce the
// requested number of complete rows. It is a configuration problem (lookback
// too small), not a transient fetch failure.
var ErrInsufficientHistory = errors.New("insufficient warm-up history")

// Join left-joins trend rows with sentiment readings on exact calendar date and
// keeps only rows whose three moving averages are defined. Order is preserved.
func Join(trend []models.TrendRow, readings []models.SentimentPoint) []models.FeatureRow {
	index := sentiment.Index(readings)

	rows := make([]models.FeatureRow, 0, len(trend))
	for _, t := range trend {
		if !t.Complete() {
			continue
		}

		row := models.FeatureRow{TrendRow: t}
		if s, ok := index[models.DateKey(t.Date)]; ok {
			row.Sentiment = &s
		}
		rows = append(rows, row)
	}

	return rows
}

// Tail returns the trailing n rows (all of them when fewer exist)
func Tail(rows []models.FeatureRow, n int) []models.FeatureRow {
	if n <= 0 {
		return nil
	}
	if len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}

// Build joins and keeps the trailing want rows. Fewer complete rows than
// requested is reported as ErrInsufficientHistory.
func Build(trend []models.TrendRow, readings []models.SentimentPoint, want int) ([]models.FeatureRow, error) {
	rows := Join(trend, readings)
	if len(rows) < want {
		return nil, fmt.Errorf("%w: found %d complete rows, need %d (price rows: %d)",
			ErrInsufficientHistory, len(rows), want, len(trend))
	}

	return Tail(rows, want), nil
}
