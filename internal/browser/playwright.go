package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver runs Chromium through the Playwright driver.
type PlaywrightDriver struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	opts     Options
	contract Contract
}

// NewPlaywright installs the driver when needed, starts Playwright and launches Chromium.
func NewPlaywright(opts Options, contract Contract) (*PlaywrightDriver, error) {
	runOpts := &playwright.RunOptions{Browsers: []string{"chromium"}}
	if !opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("could not install playwright browsers: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		// Fallback: attempt install driver explicitly then retry
		_ = playwright.Install(runOpts)
		pw, err = playwright.Run(runOpts)
		if err != nil {
			return nil, fmt.Errorf("could not start playwright after retry (ensure driver version matches): %w", err)
		}
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(millis(opts.SlowMo)),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	return &PlaywrightDriver{
		pw:       pw,
		browser:  browser,
		opts:     opts,
		contract: contract,
	}, nil
}

func (d *PlaywrightDriver) Name() string { return "playwright" }

// NewSession opens a fresh context so no cookies or storage leak between scenarios.
func (d *PlaywrightDriver) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bctx, err := d.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  d.opts.ViewportWidth,
			Height: d.opts.ViewportHeight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	if d.opts.ActionTimeout > 0 {
		bctx.SetDefaultTimeout(millis(d.opts.ActionTimeout))
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	return &playwrightSession{
		context:  bctx,
		page:     page,
		opts:     d.opts,
		contract: d.contract,
	}, nil
}

// Close closes the browser and stops the Playwright driver.
func (d *PlaywrightDriver) Close() error {
	var errs []error
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
	}
	if d.pw != nil {
		errs = append(errs, d.pw.Stop())
	}
	return errors.Join(errs...)
}

type playwrightSession struct {
	context  playwright.BrowserContext
	page     playwright.Page
	opts     Options
	contract Contract
}

func (s *playwrightSession) input() playwright.Locator {
	return s.page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{
		Name: s.contract.InputLabel,
	})
}

func (s *playwrightSession) Goto(ctx context.Context, url string) error {
	timeout := playwright.Float(millis(budget(ctx, s.opts.NavTimeout)))
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{Timeout: timeout}); err != nil {
		return err
	}
	return s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: timeout,
	})
}

func (s *playwrightSession) ClearInput(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.input().Clear(playwright.LocatorClearOptions{
		Timeout: playwright.Float(millis(budget(ctx, s.opts.ActionTimeout))),
	})
}

func (s *playwrightSession) FillInput(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.input().Fill(text, playwright.LocatorFillOptions{
		Timeout: playwright.Float(millis(budget(ctx, s.opts.ActionTimeout))),
	})
}

func (s *playwrightSession) InputValue(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.input().InputValue(playwright.LocatorInputValueOptions{
		Timeout: playwright.Float(millis(budget(ctx, s.opts.ActionTimeout))),
	})
}

func (s *playwrightSession) WaitForOutput(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.WaitForFunction(outputReadyJS, s.contract.ClassSelector(), playwright.PageWaitForFunctionOptions{
		Timeout: playwright.Float(millis(budget(ctx, timeout))),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return ErrTimeout
	}
	return err
}

func (s *playwrightSession) OutputText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	output := s.page.Locator(s.contract.RegionSelector()).
		Filter(playwright.LocatorFilterOptions{HasNot: s.page.Locator("textarea")}).
		First()

	count, err := output.Count()
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", ErrNoOutput
	}
	return output.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(millis(budget(ctx, s.opts.ActionTimeout))),
	})
}

func (s *playwrightSession) Screenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (s *playwrightSession) Close() error {
	var errs []error
	if s.page != nil {
		errs = append(errs, s.page.Close())
	}
	if s.context != nil {
		errs = append(errs, s.context.Close())
	}
	return errors.Join(errs...)
}
