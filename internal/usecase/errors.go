package usecase

import (
	"errors"
	"strings"
)

var (
	ErrPatientNotFound = errors.New("patient not found")

	// ErrNothingToUpdate is returned for an update naming no mutable field.
	ErrNothingToUpdate = &ValidationError{Message: "nothing to update: supply at least one of " + strings.Join(mutableColumnNames(), ", ")}
)

// ValidationError reports caller input that can be fixed and resubmitted.
// Fields maps a JSON field name to what is wrong with it.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError wraps a persistence failure. Err is for logs only and must not
// reach API callers.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
