package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stock-pivot/internal/app"
	"stock-pivot/internal/config"
)

// @title Stock Pivot API
// @version 1.0
// @description Pivots inventory files into Store-by-Product tables and flags sentinel-store movement.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx)
}
