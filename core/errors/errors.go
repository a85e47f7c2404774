// Package errors provides standardized error types and helpers for the drcovkit codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrInvalidFormat indicates malformed input data
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported version or feature
	ErrUnsupported = errors.New("unsupported")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
)

// ParseError represents a format error in a coverage file, with the
// location where parsing failed.
type ParseError struct {
	Section string // Section being parsed (e.g., "header", "module table", "bb table")
	Line    int    // 1-based line number, 0 if the error is in the binary section
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid %s at line %d: %s", e.Section, e.Line, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Section, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidFormat
}

// UnsupportedError represents an unsupported format or table version.
type UnsupportedError struct {
	Feature string // What is unsupported (e.g., "drcov version")
	Value   string // The offending value
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Value)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// ValidationError represents a document invariant violation with context
type ValidationError struct {
	Field   string // Field or entity that failed validation (e.g., "module 3", "basic block 17")
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for creating common errors

// NewParse creates a ParseError
func NewParse(section string, line int, message string) *ParseError {
	return &ParseError{
		Section: section,
		Line:    line,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, value string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Value:   value,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
