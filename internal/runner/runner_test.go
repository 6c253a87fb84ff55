package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/swiftqa/translator-e2e/internal/browser/browsertest"
	"github.com/swiftqa/translator-e2e/internal/config"
	"github.com/swiftqa/translator-e2e/internal/report"
	"github.com/swiftqa/translator-e2e/internal/scenario"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Target.URL = "http://translator.test/"
	cfg.Timeouts.PageLoad = time.Millisecond
	cfg.Timeouts.AfterClear = time.Millisecond
	cfg.Timeouts.Translation = time.Millisecond
	cfg.Timeouts.OutputPoll = 20 * time.Millisecond
	cfg.Timeouts.BetweenTests = time.Millisecond
	cfg.Timeouts.Scenario = 5 * time.Second
	cfg.Report.OutputDir = t.TempDir()
	return cfg
}

// sinhalaish renders nothing for blank or digit-only input, like the real site.
func sinhalaish(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || strings.Trim(trimmed, "0123456789") == "" {
		return ""
	}
	return "සිං " + trimmed
}

func TestRunScenario(t *testing.T) {
	ctx := context.Background()

	t.Run("Non-empty scenario passes when output renders", func(t *testing.T) {
		driver := browsertest.NewDriver()
		driver.Translate = sinhalaish
		r := NewRunner(driver, testConfig(t))

		res := r.RunScenario(ctx, scenario.Scenario{ID: "Pos_Fun_0015", Input: "mama yami", Kind: scenario.KindNonEmpty})

		assert.Equal(t, report.StatusPassed, res.Status)
		assert.Equal(t, "සිං mama yami", res.Output)
		assert.Equal(t, "observed", res.Outcome)
		assert.Empty(t, res.Reason)
		assert.Empty(t, res.Screenshot)
	})

	t.Run("Digits are recorded failed regardless of output", func(t *testing.T) {
		for name, translate := range map[string]browsertest.Translate{
			"no output":   sinhalaish,
			"echo output": strings.ToUpper,
		} {
			t.Run(name, func(t *testing.T) {
				driver := browsertest.NewDriver()
				driver.Translate = translate
				r := NewRunner(driver, testConfig(t))

				res := r.RunScenario(ctx, scenario.Scenario{ID: "Neg_Fun_0006", Input: "123456789", Kind: scenario.KindForcedMismatch})

				assert.Equal(t, report.StatusFailed, res.Status)
				assert.Contains(t, res.Reason, scenario.Sentinel)
			})
		}
	})

	t.Run("Failures take a screenshot", func(t *testing.T) {
		driver := browsertest.NewDriver()
		driver.Translate = sinhalaish
		cfg := testConfig(t)
		r := NewRunner(driver, cfg)

		res := r.RunScenario(ctx, scenario.Scenario{ID: "Neg_Fun_0007", Input: "", Kind: scenario.KindForcedMismatch})

		require.Equal(t, report.StatusFailed, res.Status)
		require.NotEmpty(t, res.Screenshot)
		assert.True(t, strings.HasPrefix(res.Screenshot, cfg.Report.OutputDir))
		assert.Contains(t, res.Screenshot, "Neg_Fun_0007_")
		assert.Equal(t, []string{res.Screenshot}, driver.Sessions[0].Screenshots)
	})

	t.Run("Screenshots can be disabled", func(t *testing.T) {
		driver := browsertest.NewDriver()
		cfg := testConfig(t)
		cfg.Browser.Screenshots = false
		r := NewRunner(driver, cfg)

		res := r.RunScenario(ctx, scenario.Scenario{ID: "Neg_Fun_0001", Input: "x", Kind: scenario.KindForcedMismatch})

		assert.Equal(t, report.StatusFailed, res.Status)
		assert.Empty(t, res.Screenshot)
		assert.Empty(t, driver.Sessions[0].Screenshots)
	})

	t.Run("Navigation errors are recorded as errored", func(t *testing.T) {
		driver := browsertest.NewDriver()
		driver.GotoErr = errors.New("net::ERR_CONNECTION_REFUSED")
		r := NewRunner(driver, testConfig(t))

		res := r.RunScenario(ctx, scenario.Scenario{ID: "Pos_Fun_0001", Input: "a", Kind: scenario.KindNonEmpty})

		assert.Equal(t, report.StatusErrored, res.Status)
		assert.Contains(t, res.Reason, "ERR_CONNECTION_REFUSED")
		assert.Contains(t, res.Reason, "http://translator.test/")
	})

	t.Run("Scenario timeout is recorded as errored", func(t *testing.T) {
		driver := browsertest.NewDriver()
		driver.Block = true
		cfg := testConfig(t)
		cfg.Timeouts.Scenario = 30 * time.Millisecond
		r := NewRunner(driver, cfg)

		res := r.RunScenario(ctx, scenario.Scenario{ID: "Pos_Fun_0001", Input: "a", Kind: scenario.KindNonEmpty})

		assert.Equal(t, report.StatusErrored, res.Status)
		assert.Contains(t, res.Reason, "test timeout of 30ms exceeded")
	})

	t.Run("Each scenario gets its own session and closes it", func(t *testing.T) {
		driver := browsertest.NewDriver()
		r := NewRunner(driver, testConfig(t))

		r.RunScenario(ctx, scenario.Scenario{ID: "A", Input: "a", Kind: scenario.KindNonEmpty})
		r.RunScenario(ctx, scenario.Scenario{ID: "B", Input: "b", Kind: scenario.KindNonEmpty})

		require.Len(t, driver.Sessions, 2)
		for _, s := range driver.Sessions {
			assert.True(t, s.Closed)
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("Runs the default table and isolates failures", func(t *testing.T) {
		driver := browsertest.NewDriver()
		driver.Translate = sinhalaish
		reg := prometheus.NewRegistry()
		r := NewRunner(driver, testConfig(t), WithMetrics(NewMetrics(reg)))

		list := scenario.Default()
		rep := r.Run(context.Background(), list)

		require.Len(t, rep.Results, len(list))
		for i, res := range rep.Results {
			assert.Equal(t, list[i].ID, res.Scenario.ID, "results keep table order")
		}

		s := rep.Summary()
		assert.Equal(t, 25, s.Passed)
		assert.Equal(t, 10, s.Failed)
		assert.Equal(t, 10, s.ExpectedFailures)
		assert.Zero(t, s.Errored)
		assert.False(t, rep.OK())
		assert.Equal(t, "fake", rep.Engine)
		assert.NotEmpty(t, rep.RunID)

		assert.Equal(t, float64(25), testutil.ToFloat64(r.metrics.scenarios.WithLabelValues("passed", "non-empty")))
		assert.Equal(t, float64(10), testutil.ToFloat64(r.metrics.scenarios.WithLabelValues("failed", "forced-mismatch")))
		assert.Greater(t, testutil.ToFloat64(r.metrics.lastRun), float64(0))
	})

	t.Run("One navigation failure does not block the others", func(t *testing.T) {
		driver := browsertest.NewDriver()
		driver.GotoErrFor = map[int]error{1: errors.New("net::ERR_TIMED_OUT")}
		r := NewRunner(driver, testConfig(t))

		rep := r.Run(context.Background(), []scenario.Scenario{
			{ID: "A", Input: "a", Kind: scenario.KindNonEmpty},
			{ID: "B", Input: "b", Kind: scenario.KindNonEmpty},
			{ID: "C", Input: "c", Kind: scenario.KindNonEmpty},
		})

		statuses := []report.Status{}
		for _, res := range rep.Results {
			statuses = append(statuses, res.Status)
		}
		assert.Equal(t, []report.Status{report.StatusPassed, report.StatusErrored, report.StatusPassed}, statuses)
	})

	t.Run("Cancelled run marks remaining scenarios errored", func(t *testing.T) {
		driver := browsertest.NewDriver()
		r := NewRunner(driver, testConfig(t))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		rep := r.Run(ctx, scenario.Default()[:3])
		require.Len(t, rep.Results, 3)
		for _, res := range rep.Results {
			assert.Equal(t, report.StatusErrored, res.Status)
			assert.Contains(t, res.Reason, "run cancelled")
		}
		assert.Empty(t, driver.Sessions)
	})

	t.Run("Pacing waits between scenarios", func(t *testing.T) {
		driver := browsertest.NewDriver()
		cfg := testConfig(t)
		cfg.Run.Pace = true
		cfg.Timeouts.BetweenTests = 40 * time.Millisecond
		r := NewRunner(driver, cfg)

		start := time.Now()
		r.Run(context.Background(), []scenario.Scenario{
			{ID: "A", Input: "a", Kind: scenario.KindNonEmpty},
			{ID: "B", Input: "b", Kind: scenario.KindNonEmpty},
		})
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})
}
