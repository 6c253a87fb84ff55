// Package report aggregates scenario results and writes them out.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/swiftqa/translator-e2e/internal/scenario"
)

// Status is the final state of one scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
)

// Result is what happened when one scenario ran.
type Result struct {
	Scenario   scenario.Scenario `json:"scenario"`
	Status     Status            `json:"status"`
	Output     string            `json:"output"`
	Outcome    string            `json:"outcome,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Duration   time.Duration     `json:"duration_ns"`
	Screenshot string            `json:"screenshot,omitempty"`
}

// Report is the aggregate of one run.
type Report struct {
	RunID     string        `json:"run_id"`
	Target    string        `json:"target"`
	Engine    string        `json:"engine"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Results   []Result      `json:"results"`
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	// ExpectedFailures counts failed scenarios that were declared as expected to fail.
	ExpectedFailures int `json:"expected_failures"`
}

func New(target, engine string, startedAt time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Target:    target,
		Engine:    engine,
		StartedAt: startedAt,
		Results:   []Result{},
	}
}

func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
			if res.Scenario.ExpectedToFail() {
				s.ExpectedFailures++
			}
		case StatusErrored:
			s.Errored++
		}
	}
	return s
}

// OK reports whether every scenario passed.
func (r *Report) OK() bool {
	s := r.Summary()
	return s.Failed == 0 && s.Errored == 0
}

// Find returns the result for a scenario id.
func (r *Report) Find(id string) (Result, bool) {
	for _, res := range r.Results {
		if res.Scenario.ID == id {
			return res, true
		}
	}
	return Result{}, false
}
