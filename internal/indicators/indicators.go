package indicators

import (
	"github.com/shopspring/decimal"

	"github.com/selivandex/fng-signal/pkg/models"
)

// Moving average windows used by the signal strategies
const (
	Window50  = 50
	Window100 = 100
	Window200 = 200
)

// Calculator calculates trend statistics from daily price history
type Calculator struct{}

// NewCalculator creates new indicator calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// MovingAverages annotates every price point with its 50/100/200 day simple
// moving averages. Averages stay invalid until the window is full.
func (c *Calculator) MovingAverages(points []models.PricePoint) []models.TrendRow {
	ma50 := c.SMA(points, Window50)
	ma100 := c.SMA(points, Window100)
	ma200 := c.SMA(points, Window200)

	rows := make([]models.TrendRow, len(points))
	for i, p := range points {
		rows[i] = models.TrendRow{
			PricePoint: p,
			MA50:       ma50[i],
			MA100:      ma100[i],
			MA200:      ma200[i],
		}
	}

	return rows
}

// SMA calculates the trailing simple moving average of closes for one window.
// Position i is valid only when i >= period-1; nothing after i is ever read.
// Means are exact: a close equal to its average compares equal to it.
func (c *Calculator) SMA(points []models.PricePoint, period int) []decimal.NullDecimal {
	result := make([]decimal.NullDecimal, len(points))
	if period < 1 || len(points) < period {
		return result
	}

	k := decimal.NewFromInt(int64(period))
	sum := decimal.Zero
	for i, p := range points {
		sum = sum.Add(p.Close)
		if i >= period {
			sum = sum.Sub(points[i-period].Close)
		}
		if i >= period-1 {
			result[i] = decimal.NewNullDecimal(mean(sum, k))
		}
	}

	return result
}

// mean divides with enough digits to keep sum/k exact whenever k divides a
// power of ten, which holds for every window used here
func mean(sum, k decimal.Decimal) decimal.Decimal {
	places := -sum.Exponent() + 4
	if places < int32(decimal.DivisionPrecision) {
		places = int32(decimal.DivisionPrecision)
	}
	return sum.DivRound(k, places)
}
