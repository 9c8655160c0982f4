package model

// Source is one uploaded or local file handed to a pivot job
type Source struct {
	Name string `json:"name" validate:"required"` // display name, used for the output file name
	Path string `json:"path" validate:"required"` // where the reader finds the bytes
}

// Export defines where and how pivot tables are written
type Export struct {
	Dir    string `json:"dir"`                                            // base output directory
	Format string `json:"format" validate:"omitempty,oneof=xlsx csv json"` // defaults to xlsx
}

// Workers defines how many files are processed at the same time
type Workers struct {
	Process int `json:"process" validate:"gte=0"`
}

// PivotJobSpec defines a batch of files to pivot and check for movement
type PivotJobSpec struct {
	Sources    []Source `json:"sources" validate:"required,min=1,dive"`
	Export     Export   `json:"export"`
	Workers    Workers  `json:"workers"`
	JobTimeout string   `json:"jobTimeout"` // e.g., "5m"
}

// Job statuses
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)
