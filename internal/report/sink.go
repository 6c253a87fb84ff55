package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/swiftqa/translator-e2e/internal/config"
)

const (
	// ScreenshotDir is the sub-directory of the output dir that holds failure screenshots.
	ScreenshotDir = "screenshots"
	HTMLFile      = "index.html"
	JSONFile      = "report.json"
)

// WriteJSON encodes the report with its summary.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*Report
		Summary Summary `json:"summary"`
	}{r, r.Summary()})
}

// Sink writes a report to every enabled reporter.
type Sink struct {
	cfg      config.ReportConfig
	stdout   io.Writer
	gatherer prometheus.Gatherer
}

// NewSink returns a Sink for cfg. The gatherer may be nil when no metrics file is wanted.
func NewSink(cfg config.ReportConfig, stdout io.Writer, gatherer prometheus.Gatherer) *Sink {
	return &Sink{cfg: cfg, stdout: stdout, gatherer: gatherer}
}

// Write emits the report and returns the files it created.
func (s *Sink) Write(r *Report) ([]string, error) {
	var files []string

	if s.cfg.HasReporter(config.ReporterList) {
		if err := WriteList(s.stdout, r); err != nil {
			return files, fmt.Errorf("failed to write list report: %w", err)
		}
	}
	if s.cfg.HasReporter(config.ReporterHTML) {
		path := filepath.Join(s.cfg.OutputDir, HTMLFile)
		if err := writeFile(path, r, WriteHTML); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	if s.cfg.HasReporter(config.ReporterJSON) {
		path := filepath.Join(s.cfg.OutputDir, JSONFile)
		if err := writeFile(path, r, WriteJSON); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	if s.cfg.MetricsFile != "" && s.gatherer != nil {
		if err := os.MkdirAll(filepath.Dir(s.cfg.MetricsFile), 0755); err != nil {
			return files, fmt.Errorf("failed to create metrics directory: %w", err)
		}
		if err := prometheus.WriteToTextfile(s.cfg.MetricsFile, s.gatherer); err != nil {
			return files, fmt.Errorf("failed to write metrics file: %w", err)
		}
		files = append(files, s.cfg.MetricsFile)
	}
	return files, nil
}

func writeFile(path string, r *Report, write func(io.Writer, *Report) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
