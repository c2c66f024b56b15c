package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deusflow/mainewire/internal/api"
	"github.com/deusflow/mainewire/internal/app"
	"github.com/deusflow/mainewire/internal/config"
	"github.com/deusflow/mainewire/internal/logger"
	"github.com/deusflow/mainewire/internal/scheduler"
)

const scheduledRunTimeout = 15 * time.Minute

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg == nil {
		return
	}

	logger.Init(cfg.Debug, cfg.LogFormat)

	pipeline, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to build pipeline", "error", err)
		os.Exit(1)
	}

	if cfg.ScrapeKey == "" && cfg.CronSecret == "" && cfg.CronKey == "" {
		slog.Warn("No trigger secrets configured; /api/scrape and /api/cron will reject every request")
	}

	handler := api.NewHandler(pipeline, api.Secrets{
		ScrapeKey:  cfg.ScrapeKey,
		CronSecret: cfg.CronSecret,
		CronKey:    cfg.CronKey,
	})
	server := api.NewHTTPServer(api.DefaultServerConfig(cfg.Port), api.NewRouter(handler))

	var sched *scheduler.Scheduler
	if cfg.Schedule != "" {
		sched, err = scheduler.New(cfg.Schedule, pipeline, scheduledRunTimeout)
		if err != nil {
			slog.Error("Invalid schedule", "schedule", cfg.Schedule, "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Port, "mode", pipeline.Mode())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")
	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
