package strategy

import "github.com/selivandex/fng-signal/pkg/models"

// Table regimes. The decision table only distinguishes bull from bear.
const (
	TableBull = "bull"
	TableBear = "bear"
)

// Trend-position buckets, nearest average first
const (
	BucketNearMA50 = "50ma±"
	BucketMA50     = "50ma"
	BucketMA100    = "100ma"
	BucketMA200    = "200ma"
)

// Buckets lists the table rows in display order
var Buckets = []string{BucketNearMA50, BucketMA50, BucketMA100, BucketMA200}

const messageHeader = "Should I invest today \U0001F52E:\n"

// Recommendation texts
const (
	msgGetReady     = messageHeader + "\U0001F9D8 Get ready, the time to invest may be near."
	msgPatient      = messageHeader + "Be patient, do not FOMO. \U0001F645\nToday is not a good day to invest."
	msgDCA          = messageHeader + "\U0001F402 Opportunity is here, time to DCA!"
	msgBlood        = messageHeader + "\U0001FA78 Blood on the streets, good time to invest!"
	msgBearDCA      = messageHeader + "\U0001F43B A bear market is always a good time to invest. Start to DCA if you have not started. \U0000E420"
	msgRedDay       = messageHeader + "\U0001F3AF DCA if today is a huge red day."
	FallbackMessage = messageHeader + "Wait for a couple of days, let the market settle. \U0000E433"
)

type tableRow map[models.Rating]string

// columns fills the five rating columns in order extreme fear .. extreme greed
func columns(extremeFear, fear, neutral, greed, extremeGreed string) tableRow {
	return tableRow{
		models.RatingExtremeFear:  extremeFear,
		models.RatingFear:         fear,
		models.RatingNeutral:      neutral,
		models.RatingGreed:        greed,
		models.RatingExtremeGreed: extremeGreed,
	}
}

// decisionTables is built once and only read through Lookup
var decisionTables = map[string]map[string]tableRow{
	TableBull: {
		BucketNearMA50: columns(msgGetReady, msgGetReady, msgGetReady, msgPatient, msgPatient),
		BucketMA50:     columns(msgDCA, msgDCA, msgGetReady, msgGetReady, msgGetReady),
		BucketMA100:    columns(msgBlood, msgBlood, msgDCA, msgDCA, msgDCA),
		BucketMA200:    columns(msgBlood, msgBlood, msgDCA, msgDCA, msgDCA),
	},
	TableBear: {
		BucketNearMA50: columns(msgBearDCA, msgBearDCA, msgBearDCA, msgBearDCA, msgBearDCA),
		BucketMA50:     columns(msgRedDay, msgRedDay, msgRedDay, msgRedDay, msgRedDay),
		BucketMA100:    columns(msgGetReady, msgGetReady, msgGetReady, msgPatient, msgPatient),
		BucketMA200:    columns(msgPatient, msgPatient, msgPatient, msgPatient, msgPatient),
	},
}

// Lookup returns the recommendation for regime, bucket and rating
func Lookup(regime, bucket string, rating models.Rating) (string, bool) {
	msg, ok := decisionTables[regime][bucket][rating]
	return msg, ok
}
