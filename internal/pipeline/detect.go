package pipeline

import (
	"strings"

	"stock-pivot/internal/model"
)

// SentinelSuffix marks a store column that should never see movement.
// The match is a literal, case-sensitive suffix; nothing else is inferred.
const SentinelSuffix = "X"

// SentinelColumns returns the store columns ending in SentinelSuffix, in table order
func SentinelColumns(t *model.AggregatedTable) []string {
	var cols []string
	for _, s := range t.Stores {
		if strings.HasSuffix(s, SentinelSuffix) {
			cols = append(cols, s)
		}
	}
	return cols
}

// Detect classifies a table by its sentinel columns. It only reads the table.
//
//   - no sentinel column: NoMovement
//   - several sentinel columns: Ambiguous, never resolved by picking one
//   - one sentinel column: MovementDetected if any data row is non-zero there
func Detect(t *model.AggregatedTable) model.MovementVerdict {
	cols := SentinelColumns(t)

	switch {
	case len(cols) == 0:
		return model.MovementVerdict{Status: model.NoMovement}
	case len(cols) > 1:
		return model.MovementVerdict{
			Status:  model.MovementAmbiguous,
			Detail:  "multiple X columns: " + strings.Join(cols, ", "),
			Columns: cols,
		}
	}

	idx := t.StoreIndex(cols[0])
	for _, r := range t.Data {
		if !r.Stores[idx].IsZero() {
			return model.MovementVerdict{Status: model.MovementDetected, Columns: cols}
		}
	}
	return model.MovementVerdict{Status: model.NoMovement, Columns: cols}
}
