package strategy

import (
	"errors"
	"fmt"

	"github.com/selivandex/fng-signal/pkg/models"
)

// ErrWrongRowCount means the change detector did not get exactly two rows
var ErrWrongRowCount = errors.New("change detection needs exactly 2 rows")

// DetectChange compares the decisions of the previous and the latest row.
// Only the latest row is reported; there is no memory of earlier runs.
func DetectChange(rows []models.SignalRow) (models.Change, error) {
	if len(rows) != 2 {
		return models.Change{}, fmt.Errorf("%w: got %d", ErrWrongRowCount, len(rows))
	}

	previous, current := rows[0], rows[1]
	return models.Change{
		Notify:   previous.Decision.Key() != current.Decision.Key(),
		Previous: previous,
		Current:  current,
	}, nil
}
