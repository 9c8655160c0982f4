package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"stock-pivot/internal/logger"
	"stock-pivot/internal/model"
	"stock-pivot/internal/pipeline"
)

type processOptions struct {
	outDir   string
	format   string
	workers  int
	logLevel string
}

func newProcessCmd() *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Pivot CSV/XLSX files and report movement per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.outDir, "out", "processed_files", "Output directory; each run writes into <out>/<job id>/")
	cmd.Flags().StringVar(&opts.format, "format", pipeline.FormatXLSX, "Output format: xlsx, csv or json")
	cmd.Flags().IntVar(&opts.workers, "workers", pipeline.DefaultWorkers, "Files processed concurrently")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr: debug, info, warn, error")

	return cmd
}

func runProcess(cmd *cobra.Command, opts processOptions, files []string) error {
	format := strings.ToLower(opts.format)
	switch format {
	case pipeline.FormatXLSX, pipeline.FormatCSV, pipeline.FormatJSON:
	default:
		return fmt.Errorf("invalid --format %q", opts.format)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logger.ParseLevel(opts.logLevel)}))

	job := model.PivotJobSpec{
		Export:  model.Export{Dir: opts.outDir, Format: format},
		Workers: model.Workers{Process: opts.workers},
	}
	for _, f := range files {
		job.Sources = append(job.Sources, model.Source{Name: filepath.Base(f), Path: f})
	}

	runner := &pipeline.Runner{Logger: log}
	outcomes, err := runner.Run(cmd.Context(), uuid.New().String(), job)
	if err != nil {
		return err
	}

	failures := printOutcomes(cmd.OutOrStdout(), outcomes)
	if failures > 0 {
		return errFilesFailed
	}
	return nil
}

// printOutcomes writes one status line per file and returns the number of failures
func printOutcomes(w io.Writer, outcomes []model.FileOutcome) int {
	failures := 0
	for _, o := range outcomes {
		switch o.Status {
		case model.FileSkipped:
			fmt.Fprintf(w, "%s: skipped (%s)\n", o.File, o.Reason)
		case model.FileFailed:
			failures++
			fmt.Fprintf(w, "%s: failed (%s)\n", o.File, o.Reason)
		default:
			fmt.Fprintf(w, "%s: %s -> %s\n", o.File, describeVerdict(o.Verdict), o.OutputPath)
		}
	}
	return failures
}

func describeVerdict(v *model.MovementVerdict) string {
	if v == nil {
		return "processed"
	}
	switch v.Status {
	case model.MovementDetected:
		return fmt.Sprintf("movement detected in %s", strings.Join(v.Columns, ", "))
	case model.MovementAmbiguous:
		return "ambiguous: " + v.Detail
	default:
		return "no movement"
	}
}
