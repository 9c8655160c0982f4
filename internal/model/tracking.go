package model

import "time"

// StageMetrics represents metrics for a specific pipeline stage, summed over files
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	Runs             int64         `json:"runs"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
}

// JobMetrics summarizes one pivot job run
type JobMetrics struct {
	JobID           string                  `json:"job_id"`
	StartTime       time.Time               `json:"start_time"`
	EndTime         time.Time               `json:"end_time"`
	Duration        time.Duration           `json:"duration"`
	Files           int                     `json:"files"`
	Succeeded       int                     `json:"succeeded"`
	Skipped         int                     `json:"skipped"`
	Failed          int                     `json:"failed"`
	MovementFlagged int                     `json:"movement_flagged"`
	Stages          map[string]StageMetrics `json:"stages"`
}

// JobSummary is the list view of a stored job
type JobSummary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JobDetail is a stored job with its spec, file outcomes and errors
type JobDetail struct {
	JobSummary
	Spec   PivotJobSpec  `json:"spec"`
	Files  []FileOutcome `json:"files"`
	Errors []string      `json:"errors"`
}
