package config

import "fmt"

// SourcesError represents an invalid source registry file. These surface at
// startup and are fatal.
type SourcesError struct {
	Message string
	Cause   error
}

func (e *SourcesError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid sources file: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid sources file: %s", e.Message)
}

func (e *SourcesError) Unwrap() error {
	return e.Cause
}
