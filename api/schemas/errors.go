package schemas

import (
	"errors"
	"fmt"
)

// -- Error Taxonomy --

var (
	// ErrNotFound is returned by lookups against the vault or the alert registry.
	ErrNotFound = errors.New("not found")
	// ErrEvidenceExists means an evidence record with the same ID was already
	// written. The first writer wins.
	ErrEvidenceExists = errors.New("evidence record already exists")
	// ErrAlertExists means the registry already holds an alert for the ID.
	ErrAlertExists = errors.New("active alert already registered")
)

// InputError is a rejection reported by a collaborator, such as a missing
// reference corpus for the subject. It is surfaced to the caller as a bad
// request rather than an internal failure.
type InputError struct {
	Source string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s rejected input: %s", e.Source, e.Reason)
}

// NewInputError builds an InputError for the named collaborator.
func NewInputError(source, reason string) *InputError {
	return &InputError{Source: source, Reason: reason}
}

// IsInputError reports whether any error in err's chain is an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// ProcessingError wraps a fatal failure of the crisis pipeline.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("threat processing failed at %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
