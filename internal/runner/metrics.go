package runner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/swiftqa/translator-e2e/internal/report"
)

// Metrics tracks scenario outcomes for the Prometheus textfile collector.
type Metrics struct {
	scenarios *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastRun   prometheus.Gauge
}

// NewMetrics registers the runner collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		scenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "translator_e2e_scenarios_total",
			Help: "Scenarios executed, by final status and assertion kind",
		}, []string{"status", "kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "translator_e2e_scenario_duration_seconds",
			Help:    "Wall time of a scenario including settle delays",
			Buckets: []float64{1, 2, 5, 8, 10, 15, 20, 30, 60},
		}, []string{"status"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "translator_e2e_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

func (m *Metrics) observe(res report.Result) {
	m.scenarios.WithLabelValues(string(res.Status), string(res.Scenario.Kind)).Inc()
	m.duration.WithLabelValues(string(res.Status)).Observe(res.Duration.Seconds())
}

func (m *Metrics) finishRun(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}
