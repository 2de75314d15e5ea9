// Package errors provides the error vocabulary shared by the reader, the
// converter and the command line.
//
// Every typed error unwraps to one of the sentinels below so callers can
// branch with errors.Is without knowing the concrete type.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotFound indicates a file or document part was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates bad input: a corrupt document, a bad config value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates a document variant the reader cannot handle.
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError reports a missing resource such as a config file or a
// required zip part.
type NotFoundError struct {
	Resource string // "config", "document part", ...
	ID       string // path or part name
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err, ErrNotFound}
	}
	return []error{ErrNotFound}
}

// ValidationError reports a value that failed validation.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err, ErrInvalidInput}
	}
	return []error{ErrInvalidInput}
}

// IOError wraps a failed filesystem operation.
type IOError struct {
	Operation string // "open", "read", "write", "rename"
	Path      string
	Err       error
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

// ParseError reports input that could not be decoded.
type ParseError struct {
	Format  string // "DOCX", "XML", "YAML"
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

// Unwrap exposes both the cause and ErrInvalidInput.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err, ErrInvalidInput}
	}
	return []error{ErrInvalidInput}
}

// UnsupportedError reports a feature the tool deliberately does not handle.
type UnsupportedError struct {
	Feature string
	Reason  string
	Err     error
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// NewNotFound creates a NotFoundError.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation creates a ValidationError.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewIO creates an IOError.
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewParse creates a ParseError. The cause, if any, is kept for errors.Is.
func NewParse(format, path string, err error) *ParseError {
	pe := &ParseError{Format: format, Path: path, Err: err}
	if err != nil {
		pe.Message = err.Error()
	}
	return pe
}

// NewUnsupported creates an UnsupportedError.
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
