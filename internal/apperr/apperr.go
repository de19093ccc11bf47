// Package apperr holds the error taxonomy shared by the booth and ledger
// services. Callers classify with errors.As / errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a booth, order or variant row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyVerified signals that a guarded update touched zero rows because
	// the booth order was already VERIFIED. It is not a failure: the verifier
	// turns it into an idempotent success.
	ErrAlreadyVerified = errors.New("booth order already verified")
)

// ConfigurationError means catalog data for a program year is missing or
// incomplete. It is surfaced to the admin and never retried.
type ConfigurationError struct {
	ProgramYear int
	Reason      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalog configuration for %d: %s", e.ProgramYear, e.Reason)
}

// ValidationError rejects a request before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// StoreError wraps a failure of the underlying data store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func Configuration(year int, reason string) error {
	return &ConfigurationError{ProgramYear: year, Reason: reason}
}

// Store wraps err as a StoreError unless it already carries a classification
// callers rely on (not found, already verified, or an existing StoreError).
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyVerified) || errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
