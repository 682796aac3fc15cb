package store

import "fmt"

// NotFoundError indicates a requested entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// QueryError wraps a failed database operation.
type QueryError struct {
	Operation string
	Cause     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}
