// Package browsertest provides an in-memory browser.Driver for unit tests.
package browsertest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/swiftqa/translator-e2e/internal/browser"
)

// Translate maps an input value to the text the fake page renders. Returning
// "" leaves the output region blank.
type Translate func(input string) string

// Driver hands out Sessions that share the same scripted behaviour.
type Driver struct {
	mu sync.Mutex

	Translate Translate
	// GotoErr fails every navigation when set.
	GotoErr error
	// GotoErrFor fails navigation only for sessions whose index is listed.
	GotoErrFor map[int]error
	// FillErr fails FillInput.
	FillErr error
	// ReadErr fails OutputText.
	ReadErr error
	// PollErr is returned by WaitForOutput instead of the normal result.
	PollErr error
	// NoRegion makes OutputText report that no region exists.
	NoRegion bool
	// Block makes WaitForOutput wait for ctx cancellation before reporting.
	Block bool

	Sessions []*Session
	closed   bool
}

// NewDriver returns a Driver whose page echoes input upper-cased.
func NewDriver() *Driver {
	return &Driver{Translate: strings.ToUpper}
}

func (d *Driver) Name() string { return "fake" }

func (d *Driver) NewSession(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &Session{driver: d, index: len(d.Sessions)}
	d.Sessions = append(d.Sessions, s)
	return s, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Session records every call made against it.
type Session struct {
	driver *Driver
	index  int

	mu          sync.Mutex
	URL         string
	Value       string
	Clears      int
	Fills       []string
	Screenshots []string
	Closed      bool
}

func (s *Session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := s.driver.GotoErrFor[s.index]; ok {
		return err
	}
	if s.driver.GotoErr != nil {
		return s.driver.GotoErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.URL = url
	return nil
}

func (s *Session) ClearInput(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Value = ""
	s.Clears++
	return nil
}

func (s *Session) FillInput(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.driver.FillErr != nil {
		return s.driver.FillErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Value = text
	s.Fills = append(s.Fills, text)
	return nil
}

func (s *Session) InputValue(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Value, nil
}

func (s *Session) rendered() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver.Translate == nil {
		return ""
	}
	return s.driver.Translate(s.Value)
}

func (s *Session) WaitForOutput(ctx context.Context, timeout time.Duration) error {
	if s.driver.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.driver.PollErr != nil {
		return s.driver.PollErr
	}
	if strings.TrimSpace(s.rendered()) != "" {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return browser.ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) OutputText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.driver.ReadErr != nil {
		return "", s.driver.ReadErr
	}
	if s.driver.NoRegion {
		return "", browser.ErrNoOutput
	}
	return s.rendered(), nil
}

func (s *Session) Screenshot(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Screenshots = append(s.Screenshots, path)
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return errors.New("session closed twice")
	}
	s.Closed = true
	return nil
}
