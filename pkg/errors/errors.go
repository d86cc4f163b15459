// Package errors defines the typed errors raised by modelcast.
//
// Catalog loads report IOError and ParseError, request decoding reports
// ValidationError and ParseError, and components used after shutdown
// report ErrClosed wrapped in a ResourceError. The HTTP layer maps these
// to status codes.
package errors

import (
	"errors"
	"fmt"
)

// As is errors.As, re-exported so callers need a single errors import.
var As = errors.As

var (
	// ErrInvalidInput matches every error caused by bad caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed indicates use of a component after it was shut down.
	ErrClosed = errors.New("closed")
)

// ValidationError reports a value that decoded but is not acceptable.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError reports unusable configuration for a component.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config %s: %s", e.Component, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError reports a document that could not be decoded. Offset is the
// byte position of a syntax error when the decoder reports one.
type ParseError struct {
	Format  string
	File    string
	Offset  int64
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	where := e.Format
	if e.File != "" {
		where = fmt.Sprintf("%s %s", e.Format, e.File)
	}
	if e.Offset > 0 {
		return fmt.Sprintf("decode %s at byte %d: %s", where, e.Offset, e.Message)
	}
	return fmt.Sprintf("decode %s: %s", where, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidInput: a malformed document is bad input.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewParseError creates a ParseError.
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError reports a failed file or network operation on Path.
type IOError struct {
	Operation string // read, write, open, create, watch, dial
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	msg := "<nil>"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Operation, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Operation, e.Path, msg)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError reports a failed operation on a named resource, such as
// a subscriber or the feedback log.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Err       error
}

func (e *ResourceError) Error() string {
	target := e.Resource
	if e.ID != "" {
		target += " " + e.ID
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, target, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err was caused by bad input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsClosed reports whether err was caused by use after shutdown.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// NewIOError creates an IOError.
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapIO wraps err as an IOError; nil stays nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps err as a ResourceError; nil stays nil.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}

// WrapParse wraps err as a ParseError; nil stays nil.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
