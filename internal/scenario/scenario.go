// Package scenario defines the translator scenarios and how their output is judged.
package scenario

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind selects the assertion applied to a scenario's output.
type Kind string

const (
	// KindNonEmpty passes when the page rendered any output.
	KindNonEmpty Kind = "non-empty"
	// KindForcedMismatch compares the output with Sentinel and so always fails.
	// It records inputs the translator is known to mishandle.
	KindForcedMismatch Kind = "forced-mismatch"
	// KindEmpty passes when the page rendered nothing.
	KindEmpty Kind = "empty"
)

// Sentinel is the expected value of forced-mismatch scenarios. Output text is
// trimmed page content and never equals it.
const Sentinel = "FORCE_FAIL_NEVER_MATCH"

func (k Kind) Valid() bool {
	switch k {
	case KindNonEmpty, KindForcedMismatch, KindEmpty:
		return true
	}
	return false
}

// Verdict is the result of applying an assertion to output text.
type Verdict struct {
	Passed bool
	Reason string
}

// Check applies the assertion for k to output.
func (k Kind) Check(output string) Verdict {
	switch k {
	case KindNonEmpty:
		if len(output) > 0 {
			return Verdict{Passed: true}
		}
		return Verdict{Reason: "expected output length > 0, got empty output"}
	case KindForcedMismatch:
		if output == Sentinel {
			return Verdict{Passed: true}
		}
		return Verdict{Reason: fmt.Sprintf("expected %q, got %q", Sentinel, output)}
	case KindEmpty:
		if output == "" {
			return Verdict{Passed: true}
		}
		return Verdict{Reason: fmt.Sprintf("expected no output, got %q", output)}
	default:
		return Verdict{Reason: fmt.Sprintf("unknown assertion kind %q", string(k))}
	}
}

// Scenario is one input and the assertion its output must satisfy.
type Scenario struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Input string `yaml:"input" json:"input"`
	Kind  Kind   `yaml:"kind" json:"kind"`
}

// Name is the display title, e.g. "Pos_Fun_0015: Singular pronoun".
func (s Scenario) Name() string {
	if s.Label == "" {
		return s.ID
	}
	return s.ID + ": " + s.Label
}

// ExpectedToFail reports whether the scenario documents a known failure.
func (s Scenario) ExpectedToFail() bool {
	return s.Kind == KindForcedMismatch
}

type table struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

//go:embed scenarios.yaml
var defaultTable []byte

// Default returns the built-in scenario table in declaration order.
func Default() []Scenario {
	list, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("scenario: built-in table is invalid: %v", err))
	}
	return list
}

// Parse decodes and validates a YAML scenario table.
func Parse(data []byte) ([]Scenario, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse scenario table: %w", err)
	}
	if err := Validate(t.Scenarios); err != nil {
		return nil, err
	}
	return t.Scenarios, nil
}

// Validate checks ids are present and unique and kinds are known.
func Validate(list []Scenario) error {
	seen := make(map[string]bool, len(list))
	var problems []string
	for i, s := range list {
		if strings.TrimSpace(s.ID) == "" {
			problems = append(problems, fmt.Sprintf("scenario #%d has no id", i+1))
			continue
		}
		if seen[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate scenario id %s", s.ID))
		}
		seen[s.ID] = true
		if !s.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("scenario %s has unknown kind %q", s.ID, string(s.Kind)))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid scenario table: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Filter keeps scenarios whose Name matches pattern. An empty pattern keeps all.
func Filter(list []Scenario, pattern string) ([]Scenario, error) {
	if pattern == "" {
		return list, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid grep pattern: %w", err)
	}
	var out []Scenario
	for _, s := range list {
		if re.MatchString(s.Name()) {
			out = append(out, s)
		}
	}
	return out, nil
}
