package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	EnginePlaywright = "playwright"
	EngineRod        = "rod"

	ReporterList = "list"
	ReporterHTML = "html"
	ReporterJSON = "json"
)

// Validator collects every problem in a Config before reporting them together.
type Validator struct {
	config *Config
	errors []string
}

func NewValidator(cfg *Config) *Validator {
	return &Validator{
		config: cfg,
		errors: []string{},
	}
}

func (v *Validator) Validate() error {
	v.validateTarget()
	v.validateTimeouts()
	v.validateBrowser()
	v.validateRun()
	v.validateReport()

	if len(v.errors) > 0 {
		return fmt.Errorf("config validation failed:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *Validator) validateTarget() {
	t := v.config.Target
	u, err := url.Parse(t.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		v.addError("target.url must be an absolute http(s) URL, got %q", t.URL)
	}
	if strings.TrimSpace(t.InputLabel) == "" {
		v.addError("target.input_label is required")
	}
	if len(strings.Fields(t.OutputClasses)) == 0 {
		v.addError("target.output_classes is required")
	}
}

func (v *Validator) validateTimeouts() {
	t := v.config.Timeouts
	if t.OutputPoll <= 0 {
		v.addError("timeouts.output_poll must be positive")
	}
	if t.Scenario <= 0 {
		v.addError("timeouts.scenario must be positive")
	}
	if t.Navigation <= 0 {
		v.addError("timeouts.navigation must be positive")
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"page_load", t.PageLoad},
		{"after_clear", t.AfterClear},
		{"translation", t.Translation},
		{"between_tests", t.BetweenTests},
		{"action", t.Action},
	} {
		if d.value < 0 {
			v.addError("timeouts.%s must not be negative", d.name)
		}
	}
}

func (v *Validator) validateBrowser() {
	b := v.config.Browser
	switch b.Engine {
	case EnginePlaywright, EngineRod:
	default:
		v.addError("browser.engine must be %q or %q, got %q", EnginePlaywright, EngineRod, b.Engine)
	}
	if b.ViewportWidth <= 0 || b.ViewportHeight <= 0 {
		v.addError("browser viewport must be positive, got %dx%d", b.ViewportWidth, b.ViewportHeight)
	}
	if b.SlowMo < 0 {
		v.addError("browser.slow_mo must not be negative")
	}
}

func (v *Validator) validateRun() {
	// Scenarios share one browser and must stay ordered for reproducible results.
	if v.config.Run.Workers != 1 {
		v.addError("run.workers must be 1, parallel execution is not supported (got %d)", v.config.Run.Workers)
	}
}

func (v *Validator) validateReport() {
	for _, r := range v.config.Report.Reporters {
		switch strings.ToLower(strings.TrimSpace(r)) {
		case ReporterList, ReporterHTML, ReporterJSON:
		default:
			v.addError("unknown reporter %q (want list, html or json)", r)
		}
	}
	if (v.config.Report.HasReporter(ReporterHTML) || v.config.Report.HasReporter(ReporterJSON)) &&
		strings.TrimSpace(v.config.Report.OutputDir) == "" {
		v.addError("report.output_dir is required for html and json reporters")
	}
}

func (v *Validator) addError(format string, args ...any) {
	v.errors = append(v.errors, "   ❌ "+fmt.Sprintf(format, args...))
}
