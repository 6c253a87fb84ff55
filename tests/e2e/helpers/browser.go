package helpers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/swiftqa/translator-e2e/internal/browser"
	"github.com/swiftqa/translator-e2e/internal/config"
	"github.com/swiftqa/translator-e2e/internal/translator"
)

// BrowserHelper owns one launched engine for a test and hands out fresh pages.
type BrowserHelper struct {
	Config *config.Config
	Driver browser.Driver
	t      *testing.T
}

// NewBrowserHelper loads the suite configuration from the environment.
func NewBrowserHelper(t *testing.T) *BrowserHelper {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("could not load config: %v", err)
	}
	return &BrowserHelper{Config: cfg, t: t}
}

// Setup launches the configured engine.
func (b *BrowserHelper) Setup() error {
	driver, err := browser.New(b.Config)
	if err != nil {
		return fmt.Errorf("could not launch %s: %w", b.Config.Browser.Engine, err)
	}
	b.Driver = driver
	return nil
}

// TearDown closes the engine.
func (b *BrowserHelper) TearDown() {
	if b.Driver != nil {
		_ = b.Driver.Close()
	}
}

// NewPage opens a fresh browser context bound to t. It is closed when t
// finishes, after a screenshot if t failed.
func (b *BrowserHelper) NewPage(ctx context.Context, t *testing.T) *translator.Page {
	t.Helper()
	return b.NewPageAt(ctx, t, b.Config.Target.URL)
}

// NewPageAt is NewPage for a page object bound to url instead of the target.
func (b *BrowserHelper) NewPageAt(ctx context.Context, t *testing.T, url string) *translator.Page {
	t.Helper()
	session, err := b.Driver.NewSession(ctx)
	if err != nil {
		t.Fatalf("could not open browser session: %v", err)
	}
	t.Cleanup(func() {
		if t.Failed() && b.Config.Browser.Screenshots {
			name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
			path := filepath.Join(b.Config.Report.OutputDir, "screenshots",
				fmt.Sprintf("%s_%d.png", name, time.Now().Unix()))
			_ = session.Screenshot(path)
		}
		_ = session.Close()
	})
	return translator.NewPage(session, url,
		translator.TimingFromConfig(b.Config.Timeouts), zaptest.NewLogger(t))
}

// Reachable reports whether url answers within a few seconds.
func Reachable(url string) bool {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
