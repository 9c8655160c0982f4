package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock-pivot/internal/api"
	"stock-pivot/internal/api/handler"
	"stock-pivot/internal/config"
	"stock-pivot/internal/logger"
	"stock-pivot/internal/pipeline"
	"stock-pivot/internal/store"
	"stock-pivot/pkg/router"
)

// Application represents the main application container
type Application struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *store.Store
	Registry *prometheus.Registry
	Runner   *pipeline.Runner
	Handler  *handler.JobHandler
	Router   *router.Router

	logCloser io.Closer
}

// New wires logger, job store, metrics, runner, handlers and routes from cfg
func New(cfg *config.Config) (*Application, error) {
	log, closer, err := logger.Init(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := &Application{Config: cfg, Logger: log, logCloser: closer}

	if err := os.MkdirAll(cfg.Paths.UploadDir, 0755); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}
	app.Store = st

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.Runner = &pipeline.Runner{
		Store:   st,
		Metrics: pipeline.NewMetrics(app.Registry),
		Logger:  log,
	}

	h := handler.NewJobHandler(st, app.Runner, cfg.Paths.OutputDir, cfg.Paths.UploadDir)
	h.Format = cfg.Workers.Format
	h.Workers = cfg.Workers.Process
	h.JobTimeout = cfg.Workers.JobTimeout
	h.MaxUploadBytes = cfg.Server.MaxUploadBytes
	if err := h.Outputs.EnsureOutputDirExists(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	app.Handler = h

	app.Router = router.New()
	api.RegisterRoutes(app.Router, h, promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))

	log.Info("application initialized",
		slog.String("db", cfg.Database.Path),
		slog.String("output_dir", cfg.Paths.OutputDir),
		slog.Int("workers", cfg.Workers.Process),
	)
	return app, nil
}

// Serve blocks until ctx is cancelled or the server fails
func (a *Application) Serve(ctx context.Context) error {
	return a.Router.Start(ctx, a.Config.Addr(), a.Config.Server.ReadTimeout, a.Config.Server.WriteTimeout)
}

// Close releases the job store and the log file
func (a *Application) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}
