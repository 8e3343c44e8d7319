package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input. Never retried automatically.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a duplicate (itemId, type) in a list.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks an operation on a missing id.
	ErrNotFound = errors.New("not found")
	// ErrSystemicImport marks a store failure that aborted a bulk import.
	ErrSystemicImport = errors.New("systemic import failure")
	// ErrMatchEvaluation marks a pattern that failed while being evaluated.
	ErrMatchEvaluation = errors.New("pattern evaluation failed")
)

// FieldError describes one invalid field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries field-level detail for the caller.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// Add appends a field failure.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// OrNil returns nil when no field failed, so callers can accumulate then return.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports a duplicate key.
func ConflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFoundError reports a missing id.
func NotFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// SystemicImportError wraps the store failure that stopped a batch.
type SystemicImportError struct {
	BatchID string
	Cause   error
}

func (e *SystemicImportError) Error() string {
	return fmt.Sprintf("%s: batch %s: %v", ErrSystemicImport, e.BatchID, e.Cause)
}

func (e *SystemicImportError) Unwrap() error { return e.Cause }

func (e *SystemicImportError) Is(target error) bool { return target == ErrSystemicImport }

// MatchEvaluationError reports a single pattern that failed at match time.
// It is logged and treated as a non-match; it never reaches evaluate callers.
type MatchEvaluationError struct {
	PatternID string
	Cause     any
}

func (e *MatchEvaluationError) Error() string {
	return fmt.Sprintf("%s: pattern %s: %v", ErrMatchEvaluation, e.PatternID, e.Cause)
}

func (e *MatchEvaluationError) Is(target error) bool { return target == ErrMatchEvaluation }
