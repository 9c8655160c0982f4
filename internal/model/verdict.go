package model

// MovementStatus classifies a dataset's sentinel columns
type MovementStatus string

const (
	NoMovement        MovementStatus = "no_movement"
	MovementDetected  MovementStatus = "movement_detected"
	MovementAmbiguous MovementStatus = "ambiguous"
)

// MovementVerdict is advisory metadata about an aggregated table.
// Detail carries the reason for an ambiguous verdict; Columns the sentinel columns seen.
type MovementVerdict struct {
	Status  MovementStatus `json:"status"`
	Detail  string         `json:"detail,omitempty"`
	Columns []string       `json:"columns,omitempty"`
}

// NeedsReview is true when someone has to look at the file
func (v MovementVerdict) NeedsReview() bool {
	return v.Status == MovementDetected || v.Status == MovementAmbiguous
}
