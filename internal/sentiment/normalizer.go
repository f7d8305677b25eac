package sentiment

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/selivandex/fng-signal/pkg/models"
)

// ErrMalformedPayload means the provider response did not have the expected
// shape. Callers treat it as "sentiment unavailable", never as fatal.
var ErrMalformedPayload = errors.New("malformed fear and greed payload")

// Record is one raw historical reading: x is epoch milliseconds, y the index value
type Record struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type payload struct {
	Historical *struct {
		Data *[]Record `json:"data"`
	} `json:"fear_and_greed_historical"`
}

// Rate buckets a 0-100 value into its rating band
func Rate(value int) models.Rating {
	switch {
	case value <= 25:
		return models.RatingExtremeFear
	case value <= 45:
		return models.RatingFear
	case value <= 55:
		return models.RatingNeutral
	case value <= 75:
		return models.RatingGreed
	default:
		return models.RatingExtremeGreed
	}
}

// Normalize parses a raw provider payload into one reading per date, ascending.
// A payload missing fear_and_greed_historical.data yields ErrMalformedPayload.
func Normalize(raw []byte) ([]models.SentimentPoint, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if p.Historical == nil {
		return nil, fmt.Errorf("%w: missing fear_and_greed_historical", ErrMalformedPayload)
	}
	if p.Historical.Data == nil {
		return nil, fmt.Errorf("%w: missing fear_and_greed_historical.data", ErrMalformedPayload)
	}

	return NormalizeRecords(*p.Historical.Data), nil
}

// NormalizeRecords converts raw records to dated, rated readings sorted by
// date. When several records share a date the last one after the stable sort
// wins, i.e. the most recently reported value.
func NormalizeRecords(records []Record) []models.SentimentPoint {
	points := make([]models.SentimentPoint, 0, len(records))
	for _, r := range records {
		value := clamp(int(math.Round(r.Y)))
		points = append(points, models.SentimentPoint{
			Date:   models.Day(time.UnixMilli(int64(r.X)).UTC()),
			Value:  value,
			Rating: Rate(value),
		})
	}

	return Dedupe(points)
}

// Dedupe sorts readings by date and keeps the last reading of each date.
// Already normalized input is returned unchanged.
func Dedupe(points []models.SentimentPoint) []models.SentimentPoint {
	sorted := make([]models.SentimentPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	result := make([]models.SentimentPoint, 0, len(sorted))
	for _, p := range sorted {
		if n := len(result); n > 0 && result[n-1].Date.Equal(p.Date) {
			result[n-1] = p
			continue
		}
		result = append(result, p)
	}

	return result
}

// Index maps readings by their YYYY-MM-DD date key
func Index(points []models.SentimentPoint) map[string]models.SentimentPoint {
	index := make(map[string]models.SentimentPoint, len(points))
	for _, p := range points {
		index[models.DateKey(p.Date)] = p
	}
	return index
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
