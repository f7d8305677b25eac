package strategy

import (
	"fmt"

	"github.com/selivandex/fng-signal/pkg/models"
)

// Strategy names accepted by New
const (
	NameThreshold     = "threshold"
	NameDecisionTable = "decision_table"
)

// Classifier turns one complete feature row into a decision.
// Implementations are pure and row-local.
type Classifier interface {
	Name() string
	Classify(row models.FeatureRow) models.Decision
}

// New returns the classifier registered under name
func New(name string) (Classifier, error) {
	switch name {
	case NameThreshold:
		return NewThreshold(), nil
	case NameDecisionTable:
		return NewDecisionTable(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (expected %s or %s)", name, NameThreshold, NameDecisionTable)
	}
}

// Annotate classifies every row with the strategy and the regime classifier
func Annotate(c Classifier, rows []models.FeatureRow) []models.SignalRow {
	result := make([]models.SignalRow, len(rows))
	for i, row := range rows {
		result[i] = models.SignalRow{
			FeatureRow: row,
			Decision:   c.Classify(row),
			Regime:     ClassifyRegime(row.TrendRow),
		}
	}
	return result
}
