package translator

import (
	"errors"
	"fmt"
)

// ErrNavigation matches every NavigationError via errors.Is.
var ErrNavigation = errors.New("navigation failed")

// NavigationError reports that the translator page could not be loaded.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

func (e *NavigationError) Is(target error) bool { return target == ErrNavigation }

// Outcome is how the wait for output ended.
type Outcome int

const (
	OutcomeTimedOut Outcome = iota
	OutcomeObserved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeObserved:
		return "observed"
	case OutcomeTimedOut:
		return "timed-out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the output captured for one scenario run.
type Result struct {
	Text    string  `json:"text"`
	IsEmpty bool    `json:"is_empty"`
	Outcome Outcome `json:"-"`
}

func NewResult(text string, outcome Outcome) Result {
	return Result{
		Text:    text,
		IsEmpty: text == "",
		Outcome: outcome,
	}
}
