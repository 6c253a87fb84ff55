package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler re-runs a job on a cron schedule. A tick that arrives while the
// previous job is still running is skipped, so runs never overlap.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler accepts six-field specs (with seconds) and descriptors such as "@every 30m".
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger,
	}
}

// Start runs job once straight away, schedules it and blocks until ctx is
// cancelled, then waits for a running job to return.
func (s *Scheduler) Start(ctx context.Context, spec string, job func(context.Context)) error {
	if _, err := s.cron.AddFunc(spec, func() { s.execute(ctx, job) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.execute(ctx, job)
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("schedule", spec))

	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job func(context.Context)) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.logger.Info("Scheduled run starting")
	job(ctx)
	s.logger.Info("Scheduled run finished", zap.Duration("duration", time.Since(start)))
}

// Stop stops accepting ticks and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}
