package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stock-pivot/internal/model"
)

// Stage names
const (
	StageIngest    = "ingest"
	StageValidate  = "validate"
	StageAggregate = "aggregate"
	StageDetect    = "detect"
	StageExport    = "export"
)

// Metrics are the process-wide Prometheus collectors of the pivot pipeline
type Metrics struct {
	Files         *prometheus.CounterVec
	Verdicts      *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	RowsIngested  prometheus.Counter
}

// NewMetrics creates the collectors and registers them when reg is not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pivot",
			Name:      "files_total",
			Help:      "Files processed, by outcome.",
		}, []string{"status"}),
		Verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pivot",
			Name:      "movement_verdicts_total",
			Help:      "Movement verdicts, by status.",
		}, []string{"status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pivot",
			Name:      "stage_duration_seconds",
			Help:      "Time spent per file in each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pivot",
			Name:      "rows_ingested_total",
			Help:      "Input rows read from uploaded files.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Files, m.Verdicts, m.StageDuration, m.RowsIngested)
	}
	return m
}

// Tracker collects stage and outcome metrics for one job. Files are
// processed concurrently, so every method is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	metrics *Metrics
	job     model.JobMetrics
}

// NewTracker starts tracking a job; metrics may be nil
func NewTracker(jobID string, metrics *Metrics) *Tracker {
	return &Tracker{
		metrics: metrics,
		job: model.JobMetrics{
			JobID:     jobID,
			StartTime: time.Now(),
			Stages:    make(map[string]model.StageMetrics),
		},
	}
}

// ObserveStage records one run of a stage for one file
func (t *Tracker) ObserveStage(stage string, start time.Time, records int, err error) {
	elapsed := time.Since(start)

	t.mu.Lock()
	sm := t.job.Stages[stage]
	sm.StageName = stage
	sm.Runs++
	sm.Duration += elapsed
	sm.RecordsProcessed += int64(records)
	if err != nil {
		sm.ErrorCount++
	}
	t.job.Stages[stage] = sm
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
		if stage == StageIngest && err == nil {
			t.metrics.RowsIngested.Add(float64(records))
		}
	}
}

// ObserveOutcome counts a finished file
func (t *Tracker) ObserveOutcome(o model.FileOutcome) {
	t.mu.Lock()
	t.job.Files++
	switch o.Status {
	case model.FileSucceeded:
		t.job.Succeeded++
	case model.FileSkipped:
		t.job.Skipped++
	case model.FileFailed:
		t.job.Failed++
	}
	if o.Verdict != nil && o.Verdict.NeedsReview() {
		t.job.MovementFlagged++
	}
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.Files.WithLabelValues(string(o.Status)).Inc()
		if o.Verdict != nil {
			t.metrics.Verdicts.WithLabelValues(string(o.Verdict.Status)).Inc()
		}
	}
}

// Complete stamps the end time and returns a snapshot
func (t *Tracker) Complete() model.JobMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.EndTime = time.Now()
	t.job.Duration = t.job.EndTime.Sub(t.job.StartTime)
	return t.snapshot()
}

// GetMetrics returns a copy of the current job metrics
func (t *Tracker) GetMetrics() model.JobMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Tracker) snapshot() model.JobMetrics {
	out := t.job
	out.Stages = make(map[string]model.StageMetrics, len(t.job.Stages))
	for k, v := range t.job.Stages {
		out.Stages[k] = v
	}
	return out
}
