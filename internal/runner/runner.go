package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/swiftqa/translator-e2e/internal/browser"
	"github.com/swiftqa/translator-e2e/internal/config"
	"github.com/swiftqa/translator-e2e/internal/report"
	"github.com/swiftqa/translator-e2e/internal/scenario"
	"github.com/swiftqa/translator-e2e/internal/translator"
)

// Runner executes scenarios one after another, each in a fresh browser session.
type Runner struct {
	driver  browser.Driver
	cfg     *config.Config
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner on top of an already launched driver.
func NewRunner(driver browser.Driver, cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		driver: driver,
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every scenario in order. A failing scenario never stops the run;
// cancelling ctx marks the remaining scenarios as errored.
func (r *Runner) Run(ctx context.Context, scenarios []scenario.Scenario) *report.Report {
	start := r.now()
	rep := report.New(r.cfg.Target.URL, r.driver.Name(), start)

	r.logger.Info("Starting run",
		zap.String("run_id", rep.RunID),
		zap.String("engine", r.driver.Name()),
		zap.String("target", r.cfg.Target.URL),
		zap.Int("scenarios", len(scenarios)))

	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			rep.Add(report.Result{Scenario: sc, Status: report.StatusErrored, Reason: "run cancelled: " + err.Error()})
			continue
		}
		if i > 0 && r.cfg.Run.Pace {
			r.pause(ctx, r.cfg.Timeouts.BetweenTests)
		}
		rep.Add(r.RunScenario(ctx, sc))
	}

	rep.Duration = r.now().Sub(start)
	s := rep.Summary()
	r.logger.Info("Run finished",
		zap.String("run_id", rep.RunID),
		zap.Int("passed", s.Passed),
		zap.Int("failed", s.Failed),
		zap.Int("errored", s.Errored),
		zap.Duration("duration", rep.Duration))
	if r.metrics != nil {
		r.metrics.finishRun(r.now())
	}
	return rep
}

// RunScenario runs one scenario bounded by the scenario timeout.
func (r *Runner) RunScenario(parent context.Context, sc scenario.Scenario) report.Result {
	ctx, cancel := context.WithTimeout(parent, r.cfg.Timeouts.Scenario)
	defer cancel()

	logger := r.logger.With(zap.String("scenario", sc.ID))
	logger.Debug("Executing scenario", zap.String("label", sc.Label), zap.String("kind", string(sc.Kind)))

	start := r.now()
	res := r.execute(ctx, sc, logger)
	res.Duration = r.now().Sub(start)

	if r.metrics != nil {
		r.metrics.observe(res)
	}

	fields := []zap.Field{
		zap.String("status", string(res.Status)),
		zap.Duration("duration", res.Duration),
		zap.String("output", res.Output),
	}
	switch res.Status {
	case report.StatusPassed:
		logger.Info("Scenario passed", fields...)
	case report.StatusFailed:
		logger.Warn("Scenario failed", append(fields, zap.String("reason", res.Reason))...)
	default:
		logger.Error("Scenario errored", append(fields, zap.String("reason", res.Reason))...)
	}
	return res
}

func (r *Runner) execute(ctx context.Context, sc scenario.Scenario, logger *zap.Logger) report.Result {
	res := report.Result{Scenario: sc}

	session, err := r.driver.NewSession(ctx)
	if err != nil {
		res.Status = report.StatusErrored
		res.Reason = r.reason(ctx, fmt.Errorf("could not open browser session: %w", err))
		return res
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug("Closing session failed", zap.Error(err))
		}
	}()

	page := translator.NewPage(session, r.cfg.Target.URL, translator.TimingFromConfig(r.cfg.Timeouts), logger)

	if err := page.Open(ctx); err != nil {
		res.Status = report.StatusErrored
		res.Reason = r.reason(ctx, err)
		r.screenshot(session, &res, logger)
		return res
	}

	out, err := page.Translate(ctx, sc.Input)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		res.Output = out.Text
		res.Status = report.StatusErrored
		res.Reason = r.reason(ctx, err)
		r.screenshot(session, &res, logger)
		return res
	}

	res.Output = out.Text
	res.Outcome = out.Outcome.String()
	verdict := sc.Kind.Check(out.Text)
	if verdict.Passed {
		res.Status = report.StatusPassed
		return res
	}
	res.Status = report.StatusFailed
	res.Reason = verdict.Reason
	r.screenshot(session, &res, logger)
	return res
}

// reason phrases err, naming the scenario timeout when that is what fired.
func (r *Runner) reason(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("test timeout of %s exceeded: %v", r.cfg.Timeouts.Scenario, err)
	}
	return err.Error()
}

func (r *Runner) screenshot(session browser.Session, res *report.Result, logger *zap.Logger) {
	if !r.cfg.Browser.Screenshots {
		return
	}
	path := filepath.Join(r.cfg.Report.OutputDir, report.ScreenshotDir,
		fmt.Sprintf("%s_%d.png", res.Scenario.ID, r.now().Unix()))
	if err := session.Screenshot(path); err != nil {
		logger.Debug("Screenshot failed", zap.Error(err))
		return
	}
	res.Screenshot = path
}

func (r *Runner) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
