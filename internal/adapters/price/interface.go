package price

import (
	"context"
	"errors"
	"sort"

	"github.com/selivandex/fng-signal/pkg/models"
)

// ErrNoData means the provider returned no usable daily rows
var ErrNoData = errors.New("no price data")

// HistoryProvider provides daily price history for one security
type HistoryProvider interface {
	// FetchHistory returns the trailing lookback daily rows, oldest first
	FetchHistory(ctx context.Context, ticker string, lookback int) ([]models.PricePoint, error)

	// GetName returns provider name
	GetName() string
}

// normalize sorts by date, keeps the last row per date and trims to lookback
func normalize(points []models.PricePoint, lookback int) []models.PricePoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	unique := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if n := len(unique); n > 0 && unique[n-1].Date.Equal(p.Date) {
			unique[n-1] = p
			continue
		}
		unique = append(unique, p)
	}

	if lookback > 0 && len(unique) > lookback {
		unique = unique[len(unique)-lookback:]
	}
	return unique
}
