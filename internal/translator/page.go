// Package translator is the page object for the Singlish translator UI.
//
// Page exposes the semantic operations a scenario needs (open, clear, type,
// wait, read) on top of a browser.Session. Waiting for output is bounded and
// never fails: a page that renders nothing within the deadline yields
// OutcomeTimedOut, which negative scenarios rely on.
package translator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/swiftqa/translator-e2e/internal/browser"
	"github.com/swiftqa/translator-e2e/internal/config"
)

// Timing holds the fixed settle delays and the output poll deadline.
type Timing struct {
	PageLoad    time.Duration
	AfterClear  time.Duration
	Translation time.Duration
	OutputPoll  time.Duration
}

func TimingFromConfig(t config.TimeoutConfig) Timing {
	return Timing{
		PageLoad:    t.PageLoad,
		AfterClear:  t.AfterClear,
		Translation: t.Translation,
		OutputPoll:  t.OutputPoll,
	}
}

// Page drives one translator page through a browser session.
type Page struct {
	session browser.Session
	url     string
	timing  Timing
	logger  *zap.Logger
}

func NewPage(session browser.Session, url string, timing Timing, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{
		session: session,
		url:     url,
		timing:  timing,
		logger:  logger,
	}
}

// Open loads the page, waits for network idle and then the page-load settle delay.
func (p *Page) Open(ctx context.Context) error {
	if err := p.session.Goto(ctx, p.url); err != nil {
		return &NavigationError{URL: p.url, Err: err}
	}
	if err := settle(ctx, p.timing.PageLoad); err != nil {
		return &NavigationError{URL: p.url, Err: err}
	}
	return nil
}

// ClearInput empties the entry control and waits the after-clear settle delay.
func (p *Page) ClearInput(ctx context.Context) error {
	if err := p.session.ClearInput(ctx); err != nil {
		return err
	}
	return settle(ctx, p.timing.AfterClear)
}

// SetInput writes text into the entry control as is. Empty, unicode,
// punctuation and multi-line text are all accepted.
func (p *Page) SetInput(ctx context.Context, text string) error {
	return p.session.FillInput(ctx, text)
}

// InputValue returns the current content of the entry control.
func (p *Page) InputValue(ctx context.Context) (string, error) {
	return p.session.InputValue(ctx)
}

// WaitForOutput polls for a non-empty output region until the poll deadline.
// When output shows up it waits the translation settle delay so the text
// stops changing before it is read.
func (p *Page) WaitForOutput(ctx context.Context) Outcome {
	err := p.session.WaitForOutput(ctx, p.timing.OutputPoll)
	if err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			p.logger.Debug("output poll ended with error", zap.Error(err))
		}
		return OutcomeTimedOut
	}
	if err := settle(ctx, p.timing.Translation); err != nil {
		p.logger.Debug("translation settle interrupted", zap.Error(err))
	}
	return OutcomeObserved
}

// ReadOutput returns the trimmed output text, or "" when there is no output
// region or reading it fails.
func (p *Page) ReadOutput(ctx context.Context) string {
	text, err := p.session.OutputText(ctx)
	if err != nil {
		if !errors.Is(err, browser.ErrNoOutput) {
			p.logger.Debug("reading output failed", zap.Error(err))
		}
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(text))
}

// Translate runs clear, type, wait and read for one input.
func (p *Page) Translate(ctx context.Context, text string) (Result, error) {
	if err := p.ClearInput(ctx); err != nil {
		return Result{}, err
	}
	if err := p.SetInput(ctx, text); err != nil {
		return Result{}, err
	}
	outcome := p.WaitForOutput(ctx)
	return NewResult(p.ReadOutput(ctx), outcome), nil
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
