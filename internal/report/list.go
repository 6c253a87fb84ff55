package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var statusMarks = map[Status]string{
	StatusPassed:  "✓",
	StatusFailed:  "✘",
	StatusErrored: "!",
}

// WriteList prints one line per scenario followed by totals.
func WriteList(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\nRunning %d tests using 1 worker (%s against %s)\n\n", len(r.Results), r.Engine, r.Target)
	for i, res := range r.Results {
		fmt.Fprintf(&b, "  %s  %d %s (%s)\n", statusMarks[res.Status], i+1, res.Scenario.Name(), formatDuration(res.Duration))
		if res.Reason != "" {
			for _, line := range strings.Split(res.Reason, "\n") {
				fmt.Fprintf(&b, "       %s\n", line)
			}
		}
	}

	s := r.Summary()
	b.WriteString("\n")
	if s.Errored > 0 {
		fmt.Fprintf(&b, "  %d errored\n", s.Errored)
	}
	if s.Failed > 0 {
		fmt.Fprintf(&b, "  %d failed", s.Failed)
		if s.ExpectedFailures > 0 {
			fmt.Fprintf(&b, " (%d expected)", s.ExpectedFailures)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  %d passed (%s)\n", s.Passed, formatDuration(r.Duration))

	_, err := io.WriteString(w, b.String())
	return err
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.1fm", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
