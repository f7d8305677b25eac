package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date key format shared by price and sentiment rows
const DateLayout = "2006-01-02"

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// Day truncates t to its calendar date in t's location and returns it as UTC midnight
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey returns the YYYY-MM-DD key of t's calendar date
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// PricePoint represents one trading day of price history
type PricePoint struct {
	Date   time.Time       `json:"date" db:"date"`
	Open   decimal.Decimal `json:"open" db:"open"`
	High   decimal.Decimal `json:"high" db:"high"`
	Low    decimal.Decimal `json:"low" db:"low"`
	Close  decimal.Decimal `json:"close" db:"close"`
	Volume decimal.Decimal `json:"volume" db:"volume"`
}

// TrendRow is a price point with its trailing simple moving averages.
// An average is invalid until enough observations exist for its window.
type TrendRow struct {
	PricePoint
	MA50  decimal.NullDecimal `json:"ma50"`
	MA100 decimal.NullDecimal `json:"ma100"`
	MA200 decimal.NullDecimal `json:"ma200"`
}

// Complete reports whether all three moving averages are defined
func (r TrendRow) Complete() bool {
	return r.MA50.Valid && r.MA100.Valid && r.MA200.Valid
}

// FeatureRow is a trend row left-joined with the sentiment reading of the same date
type FeatureRow struct {
	TrendRow
	Sentiment *SentimentPoint `json:"sentiment,omitempty"`
}

// Rating returns the sentiment rating, or RatingUnknown when no reading exists
func (r FeatureRow) Rating() Rating {
	if r.Sentiment == nil {
		return RatingUnknown
	}
	return r.Sentiment.Rating
}

// SentimentValue returns the sentiment value and whether it is present
func (r FeatureRow) SentimentValue() (int, bool) {
	if r.Sentiment == nil {
		return 0, false
	}
	return r.Sentiment.Value, true
}
