//go:build playwright

package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/swiftqa/translator-e2e/internal/config"
	"github.com/swiftqa/translator-e2e/internal/report"
	"github.com/swiftqa/translator-e2e/internal/runner"
	"github.com/swiftqa/translator-e2e/internal/scenario"
	"github.com/swiftqa/translator-e2e/internal/testutil/fakesite"
	"github.com/swiftqa/translator-e2e/internal/translator"
	"github.com/swiftqa/translator-e2e/tests/e2e/helpers"
)

// fixtureBrowser points a helper at a local fixture site with short delays.
func fixtureBrowser(t *testing.T, engine string) *helpers.BrowserHelper {
	t.Helper()
	srv := fakesite.Start()
	t.Cleanup(srv.Close)

	browser := helpers.NewBrowserHelper(t)
	browser.Config.Target.URL = srv.URL + "/"
	browser.Config.Browser.Engine = engine
	browser.Config.Report.OutputDir = t.TempDir()
	browser.Config.Timeouts.PageLoad = 200 * time.Millisecond
	browser.Config.Timeouts.AfterClear = 100 * time.Millisecond
	browser.Config.Timeouts.Translation = 2 * fakesite.Debounce
	browser.Config.Timeouts.OutputPoll = 3 * time.Second
	browser.Config.Timeouts.BetweenTests = 0
	browser.Config.Timeouts.Navigation = 3 * time.Second

	require.NoError(t, browser.Setup(), "Failed to launch %s", engine)
	t.Cleanup(browser.TearDown)
	return browser
}

func TestFixtureSite(t *testing.T) {
	for _, engine := range []string{config.EnginePlaywright, config.EngineRod} {
		t.Run(engine, func(t *testing.T) {
			browser := fixtureBrowser(t, engine)

			open := func(t *testing.T) (context.Context, *translator.Page) {
				ctx, cancel := context.WithTimeout(context.Background(), browser.Config.Timeouts.Scenario)
				t.Cleanup(cancel)
				page := browser.NewPage(ctx, t)
				require.NoError(t, page.Open(ctx))
				return ctx, page
			}

			t.Run("Page that never goes network-idle fails to open", func(t *testing.T) {
				ctx, cancel := context.WithTimeout(context.Background(), browser.Config.Timeouts.Scenario)
				defer cancel()
				busy := strings.TrimSuffix(browser.Config.Target.URL, "/") + "/busy"
				page := browser.NewPageAt(ctx, t, busy)

				start := time.Now()
				err := page.Open(ctx)

				require.Error(t, err)
				assert.ErrorIs(t, err, translator.ErrNavigation)
				assert.Less(t, time.Since(start), browser.Config.Timeouts.Scenario)
			})

			t.Run("Clearing twice leaves the input empty", func(t *testing.T) {
				ctx, page := open(t)
				require.NoError(t, page.SetInput(ctx, "mama yami"))
				require.NoError(t, page.ClearInput(ctx))
				require.NoError(t, page.ClearInput(ctx))

				value, err := page.InputValue(ctx)
				require.NoError(t, err)
				assert.Empty(t, value)
			})

			t.Run("Input is set verbatim", func(t *testing.T) {
				ctx, page := open(t)
				text := "Line one\nLine two  with  spaces"
				require.NoError(t, page.SetInput(ctx, text))

				value, err := page.InputValue(ctx)
				require.NoError(t, err)
				assert.Equal(t, text, value)
			})

			t.Run("Singlish input renders output", func(t *testing.T) {
				ctx, page := open(t)
				res, err := page.Translate(ctx, "mama yami")
				require.NoError(t, err)

				assert.Equal(t, translator.OutcomeObserved, res.Outcome)
				assert.Equal(t, fakesite.Transliterate("mama yami"), res.Text)
			})

			t.Run("Empty input times out and reads empty", func(t *testing.T) {
				ctx, page := open(t)
				res, err := page.Translate(ctx, "")
				require.NoError(t, err)

				assert.Equal(t, translator.OutcomeTimedOut, res.Outcome)
				assert.Empty(t, res.Text)
				assert.True(t, res.IsEmpty)
			})

			t.Run("Digits only render nothing", func(t *testing.T) {
				ctx, page := open(t)
				res, err := page.Translate(ctx, "123456789")
				require.NoError(t, err)

				assert.Equal(t, translator.OutcomeTimedOut, res.Outcome)
				assert.Empty(t, res.Text)
			})

			t.Run("Runner records forced mismatches as failed", func(t *testing.T) {
				list, err := scenario.Filter(scenario.Default(), `^(Pos_Fun_0015|Pos_UI_0001|Neg_Fun_0006):`)
				require.NoError(t, err)
				require.Len(t, list, 3)

				r := runner.NewRunner(browser.Driver, browser.Config, runner.WithLogger(zaptest.NewLogger(t)))
				rep := r.Run(context.Background(), list)

				for _, res := range rep.Results {
					want := report.StatusPassed
					if res.Scenario.ExpectedToFail() {
						want = report.StatusFailed
					}
					assert.Equal(t, want, res.Status, "%s: %s", res.Scenario.ID, res.Reason)
				}
				failed, ok := rep.Find("Neg_Fun_0006")
				require.True(t, ok)
				assert.NotEmpty(t, failed.Screenshot, "failures keep a screenshot")
			})
		})
	}
}
