// Package apperrors defines the error kinds shared by the slip packages.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrInvalidInput indicates a malformed identifier or reference
	ErrInvalidInput = errors.New("invalid input")
	// ErrParse indicates a document that could not be parsed
	ErrParse = errors.New("parse error")
)

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Offending value, after normalization
	Message string // Human-readable reason
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ParseError represents a document that could not be parsed
type ParseError struct {
	Format  string // Format being parsed (e.g. "SVG")
	Path    string // File path, if applicable
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrParse
}

// NewValidation creates a ValidationError
func NewValidation(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewParse creates a ParseError wrapping err
func NewParse(format, path string, err error) *ParseError {
	msg := "malformed document"
	if err != nil {
		msg = err.Error()
	}
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: msg,
		Err:     err,
	}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsParse reports whether err is or wraps a ParseError.
func IsParse(err error) bool {
	var p *ParseError
	return errors.As(err, &p)
}
