package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-pivot/internal/model"
	"stock-pivot/pkg/utils"
)

// DefaultWorkers is used when a job does not say how many files to process at once
const DefaultWorkers = 4

// Result is what the engine produces for one dataset
type Result struct {
	Table   *model.AggregatedTable
	Verdict model.MovementVerdict
}

// Process runs Validate, Aggregate and Detect on one dataset. A validation
// failure returns *model.MissingColumnsError and no table.
func Process(ds *model.Dataset) (*Result, error) {
	if err := Validate(ds); err != nil {
		return nil, err
	}
	table, err := Aggregate(ds)
	if err != nil {
		return nil, err
	}
	if err := table.Check(); err != nil {
		return nil, fmt.Errorf("aggregation defect: %w", err)
	}
	return &Result{Table: table, Verdict: Detect(table)}, nil
}

// JobStore persists job progress; *store.Store satisfies it
type JobStore interface {
	UpdateJobStatus(jobID string, status string) error
	SaveFileOutcome(jobID string, outcome model.FileOutcome) error
	SaveJobError(jobID string, err error) error
}

// Runner executes pivot jobs. Store and Metrics are optional.
type Runner struct {
	Store   JobStore
	Metrics *Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// ------------------- Pipeline Runner -------------------

// Run processes every source of a job and returns one outcome per source,
// in source order. A bad file never stops the others; only cancellation
// or a store failure fails the job.
func (r *Runner) Run(ctx context.Context, jobID string, job model.PivotJobSpec) (outcomes []model.FileOutcome, err error) {
	logger := r.logger().With(slog.String("job_id", jobID))
	logger.Info("starting pivot job", slog.Int("sources", len(job.Sources)))

	r.updateStatus(jobID, model.JobRunning)
	defer func() {
		if err != nil {
			r.updateStatus(jobID, model.JobFailed)
			if r.Store != nil {
				_ = r.Store.SaveJobError(jobID, err)
			}
			logger.Error("pivot job failed", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, utils.ParseDuration(job.JobTimeout))
	defer cancel()

	workers := job.Workers.Process
	if workers <= 0 {
		workers = DefaultWorkers
	}

	tracker := NewTracker(jobID, r.Metrics)
	exporter := NewExportManager(jobID, job.Export, r.Now)
	outcomes = make([]model.FileOutcome, len(job.Sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range job.Sources {
		i, src := i, src
		g.Go(func() error {
			outcomes[i] = r.processSource(gctx, logger, tracker, exporter, src)
			tracker.ObserveOutcome(outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return outcomes, fmt.Errorf("job %s interrupted: %w", jobID, err)
	}

	if r.Store != nil {
		for _, o := range outcomes {
			if err := r.Store.SaveFileOutcome(jobID, o); err != nil {
				return outcomes, fmt.Errorf("failed to save outcome for %s: %w", o.File, err)
			}
		}
	}

	summary := tracker.Complete()
	logger.Info("pivot job completed",
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("movement_flagged", summary.MovementFlagged),
		slog.Duration("duration", summary.Duration),
	)
	r.updateStatus(jobID, model.JobCompleted)
	return outcomes, nil
}

// processSource runs one file end to end in isolation from the others
func (r *Runner) processSource(ctx context.Context, logger *slog.Logger, tracker *Tracker, exporter *ExportManager, src model.Source) model.FileOutcome {
	outcome := model.FileOutcome{File: src.Name}
	logger = logger.With(slog.String("file", src.Name))

	start := time.Now()
	ds, err := ReadDataset(ctx, src.Path, src.Name)
	if err != nil {
		tracker.ObserveStage(StageIngest, start, 0, err)
		return failed(logger, outcome, StageIngest, err)
	}
	tracker.ObserveStage(StageIngest, start, len(ds.Rows), nil)

	start = time.Now()
	err = Validate(ds)
	tracker.ObserveStage(StageValidate, start, len(ds.Rows), err)
	var missing *model.MissingColumnsError
	if errors.As(err, &missing) {
		logger.Warn("skipping file", slog.Any("missing_columns", missing.Missing))
		outcome.Status = model.FileSkipped
		outcome.Reason = err.Error()
		return outcome
	}

	start = time.Now()
	table, err := Aggregate(ds)
	if err == nil {
		if cerr := table.Check(); cerr != nil {
			err = fmt.Errorf("aggregation defect: %w", cerr)
		}
	}
	tracker.ObserveStage(StageAggregate, start, len(ds.Rows), err)
	if err != nil {
		return failed(logger, outcome, StageAggregate, err)
	}

	start = time.Now()
	verdict := Detect(table)
	tracker.ObserveStage(StageDetect, start, len(table.Data), nil)

	outcome.Verdict = &verdict
	outcome.DataRows = len(table.Data)
	outcome.StoreColumns = len(table.Stores)
	outcome.SkippedRows = table.SkippedRows

	start = time.Now()
	res, err := exporter.Export(ctx, table, verdict)
	tracker.ObserveStage(StageExport, start, res.RecordCount, err)
	if err != nil {
		return failed(logger, outcome, StageExport, err)
	}

	outcome.Status = model.FileSucceeded
	outcome.OutputPath = res.Path
	logger.Info("file processed",
		slog.String("verdict", string(verdict.Status)),
		slog.Int("rows", outcome.DataRows),
		slog.Int("stores", outcome.StoreColumns),
		slog.String("output", res.Path),
	)
	return outcome
}

func failed(logger *slog.Logger, outcome model.FileOutcome, stage string, err error) model.FileOutcome {
	logger.Error("file failed", slog.String("stage", stage), slog.Any("error", err))
	outcome.Status = model.FileFailed
	outcome.Reason = err.Error()
	return outcome
}

func (r *Runner) updateStatus(jobID, status string) {
	if r.Store == nil {
		return
	}
	if err := r.Store.UpdateJobStatus(jobID, status); err != nil {
		r.logger().Warn("failed to update job status", slog.String("job_id", jobID), slog.String("status", status), slog.Any("error", err))
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
