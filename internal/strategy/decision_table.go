package strategy

import "github.com/selivandex/fng-signal/pkg/models"

// Reasons reported by the decision table strategy
const (
	ReasonTable      = "table"
	ReasonUnresolved = "unresolved"
)

// DecisionTable is the legacy strategy: a qualitative recommendation picked
// from a static bull/bear matrix of trend position x sentiment rating.
type DecisionTable struct{}

// NewDecisionTable creates decision table strategy
func NewDecisionTable() *DecisionTable {
	return &DecisionTable{}
}

func (d *DecisionTable) Name() string {
	return NameDecisionTable
}

// Classify looks up the recommendation; anything the table cannot place gets
// the fallback message.
func (d *DecisionTable) Classify(row models.FeatureRow) models.Decision {
	decision := models.Decision{
		Strategy: NameDecisionTable,
		Reason:   ReasonUnresolved,
		Message:  FallbackMessage,
	}

	if !row.Complete() {
		return decision
	}

	regime := TableRegime(row.TrendRow)
	decision.TableRegime = regime

	bucket, ok := Bucket(regime, row.TrendRow)
	if !ok {
		return decision
	}
	decision.Bucket = bucket

	msg, ok := Lookup(regime, bucket, row.Rating())
	if !ok {
		return decision
	}

	decision.Reason = ReasonTable
	decision.Message = msg
	return decision
}

// TableRegime is bull when ma50 is above ma200, bear otherwise
func TableRegime(row models.TrendRow) string {
	if models.GreaterThan(row.MA50, row.MA200) {
		return TableBull
	}
	return TableBear
}

// Bucket places the close relative to the averages. Rules are evaluated in
// order and differ per regime; false means no rule matched.
func Bucket(regime string, row models.TrendRow) (string, bool) {
	close := closeOf(row)

	if regime == TableBull {
		switch {
		case models.LessThan(close, row.MA200):
			return BucketMA200, true
		case models.Between(close, row.MA100, row.MA200):
			return BucketMA100, true
		case models.Between(close, row.MA50, row.MA100):
			return BucketMA50, true
		case models.GreaterThan(close, row.MA50):
			return BucketNearMA50, true
		}
		return "", false
	}

	switch {
	case models.LessThan(close, row.MA50):
		return BucketNearMA50, true
	case models.Between(close, row.MA50, row.MA100):
		return BucketMA50, true
	case models.Between(close, row.MA100, row.MA200):
		return BucketMA100, true
	case models.LessThan(close, row.MA200):
		return BucketMA200, true
	}
	return "", false
}
