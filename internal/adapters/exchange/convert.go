package exchange

import (
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"

	"github.com/selivandex/fng-signal/pkg/models"
)

// toPricePoints converts ccxt bars to price points dated by their UTC open day
func toPricePoints(ohlcv []ccxt.OHLCV) []models.PricePoint {
	points := make([]models.PricePoint, len(ohlcv))
	for i, bar := range ohlcv {
		points[i] = models.PricePoint{
			Date:   models.Day(time.UnixMilli(bar.Timestamp).UTC()),
			Open:   models.NewDecimal(bar.Open),
			High:   models.NewDecimal(bar.High),
			Low:    models.NewDecimal(bar.Low),
			Close:  models.NewDecimal(bar.Close),
			Volume: models.NewDecimal(bar.Volume),
		}
	}
	return points
}
