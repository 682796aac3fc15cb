// Package scoring computes weighted multi-factor match scores between user
// profiles and job postings.
package scoring

import "fmt"

// InputError indicates scoring inputs were missing or unusable. A legitimate
// zero score is returned as a MatchResult, never as an InputError.
type InputError struct {
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoring input error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("scoring input error: %s", e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}
