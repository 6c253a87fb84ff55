// Package browser drives a real browser against the translator page.
//
// Two engines implement the same Driver/Session contract: playwright-go (the
// default) and go-rod over the Chrome DevTools Protocol. A Driver owns the
// browser process for a whole run; every Session is an isolated context with a
// single page and is closed when its scenario ends.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swiftqa/translator-e2e/internal/config"
)

var (
	// ErrTimeout is returned by WaitForOutput when the deadline passes first.
	ErrTimeout = errors.New("timed out waiting for output")
	// ErrNoOutput is returned by OutputText when no output region exists.
	ErrNoOutput = errors.New("output region not found")
)

// Driver starts sessions on a shared browser process.
type Driver interface {
	Name() string
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// Session is one isolated browser context holding the translator page.
type Session interface {
	// Goto loads url and blocks until the network is idle.
	Goto(ctx context.Context, url string) error
	ClearInput(ctx context.Context) error
	FillInput(ctx context.Context, text string) error
	InputValue(ctx context.Context) (string, error)
	// WaitForOutput polls until an output region has text or timeout elapses (ErrTimeout).
	WaitForOutput(ctx context.Context, timeout time.Duration) error
	// OutputText returns the raw text of the first output region, ErrNoOutput if absent.
	OutputText(ctx context.Context) (string, error)
	Screenshot(path string) error
	Close() error
}

// Options configures how a Driver launches its browser.
type Options struct {
	Headless       bool
	SlowMo         time.Duration
	ViewportWidth  int
	ViewportHeight int
	ActionTimeout  time.Duration
	NavTimeout     time.Duration
	SkipInstall    bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Headless:       cfg.Browser.Headless,
		SlowMo:         cfg.Browser.SlowMo,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		ActionTimeout:  cfg.Timeouts.Action,
		NavTimeout:     cfg.Timeouts.Navigation,
		SkipInstall:    cfg.Browser.SkipInstall,
	}
}

// New launches the engine selected in cfg.
func New(cfg *config.Config) (Driver, error) {
	opts := OptionsFromConfig(cfg)
	contract := ContractFromConfig(cfg.Target)

	switch cfg.Browser.Engine {
	case config.EnginePlaywright, "":
		return NewPlaywright(opts, contract)
	case config.EngineRod:
		return NewRod(opts, contract)
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.Browser.Engine)
	}
}

// budget caps d by whatever time is left on ctx. It never returns zero, which
// Playwright reads as "wait forever".
func budget(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
