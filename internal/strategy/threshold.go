package strategy

import "github.com/selivandex/fng-signal/pkg/models"

// Sentiment band edges. Values exactly at the edges belong to the neutral band.
const (
	FearBelow  = 40
	GreedAbove = 60
)

// Reasons reported by the threshold strategy
const (
	ReasonFear                 = "fear"
	ReasonGreed                = "greed"
	ReasonTechnical            = "technical"
	ReasonSentimentUnavailable = "sentiment_unavailable"
	ReasonTrendUnavailable     = "trend_unavailable"
)

// Threshold is the current strategy: buy on fear, wait on greed, and in the
// neutral band buy only on a pullback inside an uptrend.
type Threshold struct{}

// NewThreshold creates threshold strategy
func NewThreshold() *Threshold {
	return &Threshold{}
}

func (t *Threshold) Name() string {
	return NameThreshold
}

// Classify maps sentiment and price/MA posture to BUY or WAIT
func (t *Threshold) Classify(row models.FeatureRow) models.Decision {
	decide := func(signal models.Signal, reason string) models.Decision {
		return models.Decision{Strategy: NameThreshold, Signal: signal, Reason: reason}
	}

	value, ok := row.SentimentValue()
	if !ok {
		return decide(models.SignalWait, ReasonSentimentUnavailable)
	}

	switch {
	case value < FearBelow:
		return decide(models.SignalBuy, ReasonFear)
	case value > GreedAbove:
		return decide(models.SignalWait, ReasonGreed)
	}

	if !row.MA50.Valid || !row.MA200.Valid {
		return decide(models.SignalWait, ReasonTrendUnavailable)
	}

	if pullbackInUptrend(row.TrendRow) {
		return decide(models.SignalBuy, ReasonTechnical)
	}
	return decide(models.SignalWait, ReasonTechnical)
}

// pullbackInUptrend: close between ma200 and ma50 while ma50 is above ma200
func pullbackInUptrend(row models.TrendRow) bool {
	close := closeOf(row)
	return models.GreaterThan(close, row.MA200) &&
		models.LessThan(close, row.MA50) &&
		models.GreaterThan(row.MA50, row.MA200)
}
