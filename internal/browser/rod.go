package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// networkQuiet is how long the network must stay silent before Goto returns.
const networkQuiet = 500 * time.Millisecond

// RodDriver runs Chrome over the DevTools Protocol with go-rod.
type RodDriver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	opts     Options
	contract Contract
}

// NewRod launches Chrome (downloading it if needed) and connects to it.
func NewRod(opts Options, contract Contract) (*RodDriver, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("no-sandbox").
		Set("disable-gpu")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if opts.SlowMo > 0 {
		browser = browser.SlowMotion(opts.SlowMo)
	}
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	return &RodDriver{
		launcher: l,
		browser:  browser,
		opts:     opts,
		contract: contract,
	}, nil
}

func (d *RodDriver) Name() string { return "rod" }

// NewSession opens an incognito context with one blank page.
func (d *RodDriver) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	incognito, err := d.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             d.opts.ViewportWidth,
		Height:            d.opts.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("could not set viewport: %w", err)
	}

	return &rodSession{
		incognito: incognito,
		page:      page,
		opts:      d.opts,
		contract:  d.contract,
	}, nil
}

// Close cleans up browser resources.
// Always call this (via defer) to prevent orphaned Chrome processes.
func (d *RodDriver) Close() error {
	var err error
	if d.browser != nil {
		err = d.browser.Close()
	}
	if d.launcher != nil {
		d.launcher.Cleanup()
	}
	return err
}

type rodSession struct {
	incognito *rod.Browser
	page      *rod.Page
	opts      Options
	contract  Contract
}

// scoped binds the page to ctx and caps each call by d.
func (s *rodSession) scoped(ctx context.Context, d time.Duration) *rod.Page {
	return s.page.Context(ctx).Timeout(budget(ctx, d))
}

func (s *rodSession) input(ctx context.Context) (*rod.Element, error) {
	return s.scoped(ctx, s.opts.ActionTimeout).Element(s.contract.InputSelector())
}

// Goto fails when the page does not go network-idle within the navigation
// timeout. The idle waiter itself returns nothing when its context expires, so
// the deadline is owned here and checked afterwards.
func (s *rodSession) Goto(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, budget(ctx, s.opts.NavTimeout))
	defer cancel()

	page := s.page.Context(navCtx)
	idle := page.WaitRequestIdle(networkQuiet, nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return err
	}
	if err := page.WaitLoad(); err != nil {
		return err
	}
	idle()
	if err := navCtx.Err(); err != nil {
		return fmt.Errorf("page did not reach network idle: %w", err)
	}
	return nil
}

func (s *rodSession) ClearInput(ctx context.Context) error {
	el, err := s.input(ctx)
	if err != nil {
		return err
	}
	_, err = el.Eval(clearValueJS)
	return err
}

func (s *rodSession) FillInput(ctx context.Context, text string) error {
	if err := s.ClearInput(ctx); err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	el, err := s.input(ctx)
	if err != nil {
		return err
	}
	return el.Input(text)
}

func (s *rodSession) InputValue(ctx context.Context) (string, error) {
	el, err := s.input(ctx)
	if err != nil {
		return "", err
	}
	value, err := el.Property("value")
	if err != nil {
		return "", err
	}
	return value.Str(), nil
}

func (s *rodSession) WaitForOutput(ctx context.Context, timeout time.Duration) error {
	page := s.page.Context(ctx).Timeout(budget(ctx, timeout))
	err := page.Wait(rod.Eval(outputReadyJS, s.contract.ClassSelector()))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return ErrTimeout
	}
	return err
}

func (s *rodSession) OutputText(ctx context.Context) (string, error) {
	res, err := s.scoped(ctx, s.opts.ActionTimeout).Eval(outputTextJS, s.contract.RegionSelector())
	if err != nil {
		return "", err
	}
	if res.Value.Nil() {
		return "", ErrNoOutput
	}
	return res.Value.Str(), nil
}

func (s *rodSession) Screenshot(path string) error {
	data, err := s.page.Screenshot(true, nil)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *rodSession) Close() error {
	var errs []error
	if s.page != nil {
		errs = append(errs, s.page.Close())
	}
	if s.incognito != nil {
		errs = append(errs, s.incognito.Close())
	}
	return errors.Join(errs...)
}
