package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stock-pivot/internal/model"
)

// ErrJobNotFound is returned for unknown job IDs
var ErrJobNotFound = errors.New("job not found")

// Store keeps job history in SQLite
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	spec TEXT,
	status TEXT,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS job_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT,
	error_message TEXT,
	created_at DATETIME
);
CREATE TABLE IF NOT EXISTS job_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT,
	file TEXT,
	status TEXT,
	reason TEXT,
	verdict TEXT,
	output_path TEXT,
	data_rows INTEGER,
	store_columns INTEGER,
	skipped_rows INTEGER,
	created_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_job_files_job ON job_files(job_id);
`

// Open opens (or creates) the database and its tables
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection avoids "database is locked"
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveJob stores a new pivot job
func (s *Store) SaveJob(jobID string, spec model.PivotJobSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`INSERT INTO jobs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		jobID, string(specJSON), model.JobPending, now, now)
	return err
}

// UpdateJobStatus updates job status
func (s *Store) UpdateJobStatus(jobID string, status string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`, status, now, jobID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// SaveJobError records an error for a job
func (s *Store) SaveJobError(jobID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := s.db.Exec(`INSERT INTO job_errors (job_id, error_message, created_at) VALUES (?, ?, ?)`,
		jobID, err.Error(), now)
	return e
}

// SaveFileOutcome records what happened to one file of a job
func (s *Store) SaveFileOutcome(jobID string, o model.FileOutcome) error {
	var verdict sql.NullString
	if o.Verdict != nil {
		b, err := json.Marshal(o.Verdict)
		if err != nil {
			return err
		}
		verdict = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.Exec(`INSERT INTO job_files
		(job_id, file, status, reason, verdict, output_path, data_rows, store_columns, skipped_rows, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID, o.File, string(o.Status), o.Reason, verdict, o.OutputPath,
		o.DataRows, o.StoreColumns, o.SkippedRows, time.Now().UTC())
	return err
}

// ListJobs returns all jobs with basic info, newest first
func (s *Store) ListJobs() ([]model.JobSummary, error) {
	rows, err := s.db.Query(`SELECT id, status, created_at, updated_at FROM jobs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []model.JobSummary{}
	for rows.Next() {
		var j model.JobSummary
		if err := rows.Scan(&j.ID, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// GetJob fetches full job spec, status, file outcomes and errors
func (s *Store) GetJob(jobID string) (*model.JobDetail, error) {
	var specJSON string
	job := &model.JobDetail{}

	err := s.db.QueryRow(`SELECT id, spec, status, created_at, updated_at FROM jobs WHERE id = ?`, jobID).
		Scan(&job.ID, &specJSON, &job.Status, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(specJSON), &job.Spec); err != nil {
		return nil, err
	}
	if job.Files, err = s.GetFileOutcomes(jobID); err != nil {
		return nil, err
	}
	if job.Errors, err = s.GetJobErrors(jobID); err != nil {
		return nil, err
	}
	return job, nil
}

// GetFileOutcomes returns the file outcomes of a job in the order they were saved
func (s *Store) GetFileOutcomes(jobID string) ([]model.FileOutcome, error) {
	rows, err := s.db.Query(`SELECT file, status, reason, verdict, output_path, data_rows, store_columns, skipped_rows
		FROM job_files WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := []model.FileOutcome{}
	for rows.Next() {
		var o model.FileOutcome
		var status string
		var verdict sql.NullString
		if err := rows.Scan(&o.File, &status, &o.Reason, &verdict, &o.OutputPath, &o.DataRows, &o.StoreColumns, &o.SkippedRows); err != nil {
			return nil, err
		}
		o.Status = model.FileStatus(status)
		if verdict.Valid {
			var v model.MovementVerdict
			if err := json.Unmarshal([]byte(verdict.String), &v); err != nil {
				return nil, err
			}
			o.Verdict = &v
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// GetJobErrors returns the error messages recorded for a job
func (s *Store) GetJobErrors(jobID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT error_message FROM job_errors WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
