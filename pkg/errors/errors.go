// Package errors provides custom error types for gearsync.
// These errors let callers branch on failure categories (source down,
// catalog unreadable, image fetch failed) without string matching.
package errors

import (
	"errors"
	"fmt"
)

// New, Is, As and Join re-export the standard library helpers so callers
// only import one errors package.
var (
	New  = errors.New
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Sentinels matched by the typed errors below.
var (
	// ErrSourceUnavailable: the link page could not be fetched or rendered.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedCatalog: a catalog or extra-data file could not be parsed.
	ErrMalformedCatalog = errors.New("malformed catalog")

	// ErrImageFetch: a product image could not be downloaded.
	ErrImageFetch = errors.New("image fetch failed")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrCanceled     = errors.New("operation canceled")
)

func text(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// SourceError is a failed fetch or render of the link page. Stage is one of
// launch, navigate, render, fetch, or extract.
type SourceError struct {
	URL     string
	Stage   string
	Message string
	Err     error
}

func (e *SourceError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("source %s unavailable: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("source %s unavailable during %s: %s", e.URL, e.Stage, e.Message)
}

func (e *SourceError) Unwrap() error        { return e.Err }
func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// NewSourceError wraps err as a failure of stage while reading url.
func NewSourceError(url, stage string, err error) *SourceError {
	return &SourceError{URL: url, Stage: stage, Message: text(err), Err: err}
}

// FetchError is a failed image download. StatusCode is set for non-2xx
// responses, Err for transport and filesystem failures.
type FetchError struct {
	URL        string
	Dest       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s -> %s: unexpected status %d", e.URL, e.Dest, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s -> %s: %v", e.URL, e.Dest, e.Err)
}

func (e *FetchError) Unwrap() error        { return e.Err }
func (e *FetchError) Is(target error) bool { return target == ErrImageFetch }

// NewFetchError creates a FetchError.
func NewFetchError(url, dest string, statusCode int, err error) *FetchError {
	return &FetchError{URL: url, Dest: dest, StatusCode: statusCode, Err: err}
}

// ParseError is a catalog, extra-data, or page that could not be decoded.
// Every ParseError counts as ErrMalformedCatalog.
type ParseError struct {
	Format  string // js, json, yaml, html
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	case e.File != "":
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s parse error at %d:%d: %s", e.Format, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrMalformedCatalog }

// NewParseError creates a ParseError without a position.
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// NotFoundError names a missing file, run, or record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string        { return fmt.Sprintf("%s %s not found", e.Resource, e.ID) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError is a rejected option, flag, or catalog value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError is an unusable configuration, such as a missing config file
// or a disabled feature that was asked for.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// DependencyError is a missing external program, such as the browser
// binary used to render the link page.
type DependencyError struct {
	Dependency string
	Message    string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s: %s", e.Dependency, e.Message)
}

// IOError is a filesystem failure. Operation is read, write, create,
// rename, or similar.
type IOError struct {
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError creates an IOError.
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Message: text(err), Err: err}
}

// ResourceError is a failed operation on a catalog, journal, report, or
// client.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Message   string
	Err       error
}

func (e *ResourceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
	}
	return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// NewResourceError creates a ResourceError.
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: text(err), Err: err}
}

// IsSourceUnavailable reports whether err means the link page was unreadable.
func IsSourceUnavailable(err error) bool { return errors.Is(err, ErrSourceUnavailable) }

// IsMalformedCatalog reports whether err is a parse failure.
func IsMalformedCatalog(err error) bool { return errors.Is(err, ErrMalformedCatalog) }

// IsImageFetch reports whether err is a failed image download.
func IsImageFetch(err error) bool { return errors.Is(err, ErrImageFetch) }

// IsNotFound reports whether err matches ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidationError reports whether err matches ErrInvalidInput.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsCanceled reports whether err matches ErrCanceled.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// The Wrap helpers return nil for a nil err, so they can wrap a call's
// result directly.

// WrapSource wraps err as a SourceError.
func WrapSource(url, stage string, err error) error {
	if err == nil {
		return nil
	}
	return NewSourceError(url, stage, err)
}

// WrapParse wraps err as a ParseError.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapIO wraps err as an IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps err as a ResourceError.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapValidation wraps err as a ValidationError on field.
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}
