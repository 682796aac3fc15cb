package ingest

import "fmt"

// PersistError indicates a single posting could not be written to storage.
type PersistError struct {
	Fingerprint string
	Cause       error
}

func (e *PersistError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persist posting %s: %v", e.Fingerprint, e.Cause)
	}
	return fmt.Sprintf("persist posting %s", e.Fingerprint)
}

func (e *PersistError) Unwrap() error {
	return e.Cause
}
