// Package errors provides custom error types for the chatmerge system.
// These errors enable better error handling, programmatic error checking,
// and improved debugging throughout the application.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the chatmerge system
var (
	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedTimestamp indicates a chat log entry whose leading
	// timestamp bracket does not match any accepted shape
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrNoLocations indicates that no usable locations were found
	ErrNoLocations = errors.New("no locations")
)

// ConfigError represents a configuration error. It is fatal: a run aborts
// before any filesystem I/O when the configuration is structurally invalid.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// MalformedTimestampError reports a chat log entry whose leading bracket could
// not be parsed as a timestamp. It is scoped to a single logical file: the
// merge for that file produces no output, and the run continues with the
// remaining files.
type MalformedTimestampError struct {
	Path string // logical file being merged
	Line string // offending first line of the entry
}

// Error implements the error interface
func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp in %s: %q (expected [YYYY/MM/DD HH:MM:SS], [YYYY/MM/DD HH:MM], or [YYYY/MM/DD HH:MM AM/PM])", e.Path, e.Line)
}

// Is implements errors.Is support
func (e *MalformedTimestampError) Is(target error) bool {
	return target == ErrMalformedTimestamp
}

// NewMalformedTimestampError creates a new MalformedTimestampError.
// The offending line is truncated for readability in diagnostics.
func NewMalformedTimestampError(path, line string) *MalformedTimestampError {
	const maxLine = 80
	if len(line) > maxLine {
		line = line[:maxLine]
	}
	return &MalformedTimestampError{Path: path, Line: line}
}

// IOError represents an error during I/O operations. It is scoped to one
// location for one logical file; the run records it and continues.
type IOError struct {
	Operation string // "read", "write", "create", "stat", "walk"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMalformedTimestamp checks if an error is a malformed timestamp error
func IsMalformedTimestamp(err error) bool {
	return errors.Is(err, ErrMalformedTimestamp)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}
