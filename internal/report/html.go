package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Translator E2E report {{ run_id }}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #1e293b; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #e2e8f0; vertical-align: top; }
.passed { color: #15803d; } .failed { color: #b91c1c; } .errored { color: #b45309; }
pre { margin: 0; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Translator E2E report</h1>
<p>Run <code>{{ run_id }}</code> with {{ engine }} against <a href="{{ target }}">{{ target }}</a>,
started {{ started_at }}, took {{ duration }}.</p>
<p>
  <span class="passed">{{ summary.Passed }} passed</span> &middot;
  <span class="failed">{{ summary.Failed }} failed{% if summary.ExpectedFailures %} ({{ summary.ExpectedFailures }} expected){% endif %}</span> &middot;
  <span class="errored">{{ summary.Errored }} errored</span>
</p>
<table>
<thead><tr><th>#</th><th>Scenario</th><th>Input</th><th>Output</th><th>Status</th><th>Duration</th></tr></thead>
<tbody>
{% for row in rows %}
<tr>
  <td>{{ forloop.Counter }}</td>
  <td>{{ row.Name }}</td>
  <td><pre>{{ row.Input }}</pre></td>
  <td><pre>{{ row.Output }}</pre></td>
  <td class="{{ row.Status }}">{{ row.Status }}{% if row.Reason %}<br><small>{{ row.Reason }}</small>{% endif %}{% if row.Screenshot %}<br><a href="{{ row.Screenshot }}">screenshot</a>{% endif %}</td>
  <td>{{ row.Duration }}</td>
</tr>
{% endfor %}
</tbody>
</table>
</body>
</html>
`

var htmlTpl = pongo2.Must(pongo2.FromString(htmlTemplate))

type htmlRow struct {
	Name       string
	Input      string
	Output     string
	Status     string
	Reason     string
	Duration   string
	Screenshot string
}

// WriteHTML renders the report as a self-contained HTML page.
func WriteHTML(w io.Writer, r *Report) error {
	rows := make([]htmlRow, 0, len(r.Results))
	for _, res := range r.Results {
		// Screenshots live in ScreenshotDir next to the HTML file.
		shot := ""
		if res.Screenshot != "" {
			shot = ScreenshotDir + "/" + filepath.Base(res.Screenshot)
		}
		rows = append(rows, htmlRow{
			Name:       res.Scenario.Name(),
			Input:      res.Scenario.Input,
			Output:     res.Output,
			Status:     string(res.Status),
			Reason:     res.Reason,
			Duration:   formatDuration(res.Duration),
			Screenshot: shot,
		})
	}

	ctx := pongo2.Context{
		"run_id":     r.RunID,
		"engine":     r.Engine,
		"target":     r.Target,
		"started_at": r.StartedAt.Format("2006-01-02 15:04:05 MST"),
		"duration":   formatDuration(r.Duration),
		"summary":    r.Summary(),
		"rows":       rows,
	}
	if err := htmlTpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}
