package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/selivandex/fng-signal/pkg/models"
)

// ClassifyRegime labels a row bull, bear or neutral from close vs the 50 and
// 200 day averages. A missing average gives unknown; providers never emit a
// price point without a close.
func ClassifyRegime(row models.TrendRow) models.Regime {
	close := closeOf(row)
	if !row.MA50.Valid || !row.MA200.Valid {
		return models.RegimeUnknown
	}

	switch {
	case models.GreaterThan(close, row.MA50) && models.GreaterThan(row.MA50, row.MA200):
		return models.RegimeBull
	case models.LessThan(close, row.MA50) && models.LessThan(row.MA50, row.MA200):
		return models.RegimeBear
	default:
		return models.RegimeNeutral
	}
}

func closeOf(row models.TrendRow) decimal.NullDecimal {
	return decimal.NewNullDecimal(row.Close)
}
