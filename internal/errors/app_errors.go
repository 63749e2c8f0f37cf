package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Pipeline error types. Each one aborts the load cycle that raised it;
	// no partial dataset is ever returned.
	ErrTypeSourceNotFound   ErrorType = "SOURCE_NOT_FOUND"
	ErrTypeSchemaMismatch   ErrorType = "SCHEMA_MISMATCH"
	ErrTypeDuplicateKey     ErrorType = "DUPLICATE_KEY"
	ErrTypeInvalidEnum      ErrorType = "INVALID_ENUM_VALUE"
	ErrTypeMissingDirection ErrorType = "MISSING_DIRECTION_CONFIG"

	// General error types
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Key returns the offending-key parts recorded on the error (function, kpi,
// round, column and the like), stringified for event payloads and logs.
func (e *AppError) Key() map[string]string {
	if len(e.Context) == 0 {
		return nil
	}
	key := make(map[string]string, len(e.Context))
	for k, v := range e.Context {
		key[k] = fmt.Sprintf("%v", v)
	}
	return key
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Pipeline error constructors. Each carries the offending key in Context so
// the caller can tell which record broke the load.

// NewSourceNotFoundError reports a source that could not be opened.
func NewSourceNotFoundError(path string, cause error) *AppError {
	return NewAppError(ErrTypeSourceNotFound, fmt.Sprintf("source %q not found", path), cause).
		WithContext("path", path)
}

// NewSchemaMismatchError reports a source whose shape does not match the
// expected tabular schema.
func NewSchemaMismatchError(detail string) *AppError {
	return NewAppError(ErrTypeSchemaMismatch, detail, nil)
}

// NewMissingColumnError reports a required header column absent from the
// source.
func NewMissingColumnError(column, sheet string) *AppError {
	return NewAppError(ErrTypeSchemaMismatch, fmt.Sprintf("required column %q missing", column), nil).
		WithContext("column", column).
		WithContext("sheet", sheet)
}

// NewDuplicateKeyError reports more than one record for the same
// (function, kpi, round) triple.
func NewDuplicateKeyError(function, kpi, round string) *AppError {
	return NewAppError(ErrTypeDuplicateKey,
		fmt.Sprintf("duplicate record for %s/%s/%s", function, kpi, round), nil).
		WithContext("function", function).
		WithContext("kpi", kpi).
		WithContext("round", round)
}

// NewInvalidEnumError reports an unrecognized function or round label.
// Unknown labels fail the load outright; they are never dropped.
func NewInvalidEnumError(field, label string) *AppError {
	return NewAppError(ErrTypeInvalidEnum,
		fmt.Sprintf("unknown %s label %q", field, label), nil).
		WithContext("field", field).
		WithContext("label", label)
}

// NewMissingDirectionError reports a KPI whose achievement comparison is
// needed but whose direction was never configured.
func NewMissingDirectionError(function, kpi string) *AppError {
	return NewAppError(ErrTypeMissingDirection,
		fmt.Sprintf("no comparison direction configured for %s/%s", function, kpi), nil).
		WithContext("function", function).
		WithContext("kpi", kpi)
}

// Helper functions for common error types

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
