package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNoSections     ErrorType = "NO_SECTIONS"
	ErrTypeFetch          ErrorType = "FETCH"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeSchemaCoercion ErrorType = "SCHEMA_COERCION"
	ErrTypeStorage        ErrorType = "STORAGE"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// Kind sentinels. errors.Is matches any AppError of the same type.
var (
	ErrNoSectionsFound = &AppError{Type: ErrTypeNoSections}
	ErrFetch           = &AppError{Type: ErrTypeFetch}
	ErrSchemaCoercion  = &AppError{Type: ErrTypeSchemaCoercion}
	ErrPersistence     = &AppError{Type: ErrTypeStorage}
	ErrValidation      = &AppError{Type: ErrTypeValidation}
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
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if len(e.Context) > 0 {
		msg += " (" + formatContext(e.Context) + ")"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError of the same type. A target with a
// message only matches errors carrying that message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Type != e.Type {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
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

// TypeOf returns the ErrorType of the first AppError in err's chain, or ""
// when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewNoSectionsError reports a document without any usable section.
func NewNoSectionsError(source string) *AppError {
	return NewAppError(ErrTypeNoSections, "No valid tables found.", nil).WithContext("source", source)
}

// NewFetchError creates a document acquisition error. status is the HTTP
// status when one was received, or 0.
func NewFetchError(message string, status int, cause error) *AppError {
	e := NewAppError(ErrTypeFetch, message, cause)
	if status != 0 {
		e.WithContext("status", status)
	}
	return e
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewSchemaCoercionError reports a cell that could not be converted to its
// canonical type.
func NewSchemaCoercionError(row int, column, value string, cause error) *AppError {
	return NewAppError(ErrTypeSchemaCoercion, "currency value is not numeric", cause).
		WithContext("row", row).
		WithContext("column", column).
		WithContext("value", value)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

func formatContext(ctx map[string]interface{}) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	return strings.Join(parts, " ")
}
