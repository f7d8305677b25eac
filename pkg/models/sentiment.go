package models

import "time"

// Rating is the categorical Fear & Greed band of a sentiment value
type Rating string

const (
	RatingExtremeFear  Rating = "Extreme Fear"
	RatingFear         Rating = "Fear"
	RatingNeutral      Rating = "Neutral"
	RatingGreed        Rating = "Greed"
	RatingExtremeGreed Rating = "Extreme Greed"
	RatingUnknown      Rating = "Unknown"
)

// Ratings lists the five defined bands from most fearful to most greedy
var Ratings = []Rating{
	RatingExtremeFear,
	RatingFear,
	RatingNeutral,
	RatingGreed,
	RatingExtremeGreed,
}

// SentimentPoint is one daily Fear & Greed reading (value 0-100)
type SentimentPoint struct {
	Date   time.Time `json:"date"`
	Value  int       `json:"value"`
	Rating Rating    `json:"rating"`
}
