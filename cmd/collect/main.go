// Command collect runs the pipeline once and prints the summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deusflow/mainewire/internal/app"
	"github.com/deusflow/mainewire/internal/config"
	"github.com/deusflow/mainewire/internal/logger"
	"github.com/deusflow/mainewire/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}
	if cfg == nil {
		return 0
	}

	// stdout carries the summary.
	slog.SetDefault(logger.New(os.Stderr, cfg.Debug, cfg.LogFormat))

	pipeline, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to build pipeline", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, runErr := pipeline.Run(ctx, app.RunOptions{Save: true, IncludeNational: true})
	if summary != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			slog.Error("Failed to write summary", "error", err)
		}
	}
	if runErr != nil {
		var stepErr *storage.StepError
		if errors.As(runErr, &stepErr) {
			slog.Error("Publish failed", "step", stepErr.Step, "name", stepErr.Name, "error", stepErr.Err)
		} else {
			slog.Error("Run failed", "error", runErr)
		}
		return 1
	}
	return 0
}
