package sources

import "fmt"

// FetchError represents a network or parse failure within one adapter. It is
// isolated to that adapter and never fails an ingestion run.
type FetchError struct {
	Source  string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ErrQuotaDenied signals that the quota gate rejected an outbound call mid-fetch.
type ErrQuotaDenied struct {
	Source string
}

func (e *ErrQuotaDenied) Error() string {
	return fmt.Sprintf("source %s: request denied by quota gate", e.Source)
}
