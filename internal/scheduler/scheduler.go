package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deusflow/mainewire/internal/app"
)

type Runner interface {
	Run(ctx context.Context, opts app.RunOptions) (*app.Summary, error)
}

// Scheduler triggers saving runs on a cron schedule inside the server
// process. A tick that fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(spec string, runner Runner, timeout time.Duration) (*Scheduler, error) {
	logger := slogLogger{}
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    c,
		runner:  runner,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := c.AddFunc(spec, s.RunOnce); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	slog.Info("Scheduler started", "entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop cancels a running job and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// RunOnce performs one saving run with national stories included.
func (s *Scheduler) RunOnce() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	slog.Info("Scheduled run starting")
	summary, err := s.runner.Run(ctx, app.RunOptions{Save: true, IncludeNational: true})
	if err != nil {
		slog.Error("Scheduled run failed", "error", err)
		return
	}
	slog.Info("Scheduled run done", "stories", summary.Count, "saved", summary.Saved, "saved_videos", summary.SavedVideos)
}

// slogLogger adapts cron's logger interface to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
