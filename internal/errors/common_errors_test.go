package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "no sections error type", errType: ErrTypeNoSections, expected: "NO_SECTIONS"},
		{name: "fetch error type", errType: ErrTypeFetch, expected: "FETCH"},
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "schema coercion error type", errType: ErrTypeSchemaCoercion, expected: "SCHEMA_COERCION"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeParsing,
				Message: "document is not HTML",
			},
			wantMessage: "[PARSING] document is not HTML",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeFetch,
				Message: "Failed to fetch HTML content",
				Cause:   fmt.Errorf("connection refused"),
			},
			wantMessage: "[FETCH] Failed to fetch HTML content: connection refused",
		},
		{
			name: "error with context",
			appError: &AppError{
				Type:    ErrTypeSchemaCoercion,
				Message: "currency value is not numeric",
				Context: map[string]interface{}{"row": 3, "column": "Paid"},
			},
			wantMessage: "[SCHEMA_COERCION] currency value is not numeric (column=Paid row=3)",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeValidation,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	appErr := NewStorageError("upload failed", cause)

	assert.Same(t, cause, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, cause))
	assert.Nil(t, NewAppValidationError("bad").Unwrap())
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same kind matches sentinel",
			err:    NewFetchError("Failed to fetch HTML content", 404, nil),
			target: ErrFetch,
			want:   true,
		},
		{
			name:   "wrapped error matches sentinel",
			err:    fmt.Errorf("run: %w", NewSchemaCoercionError(1, "Paid", "abc", nil)),
			target: ErrSchemaCoercion,
			want:   true,
		},
		{
			name:   "different kind does not match",
			err:    NewStorageError("upload failed", nil),
			target: ErrFetch,
			want:   false,
		},
		{
			name:   "message-specific target requires same message",
			err:    NewStorageError("upload failed", nil),
			target: &AppError{Type: ErrTypeStorage, Message: "download failed"},
			want:   false,
		},
		{
			name:   "plain error never matches",
			err:    errors.New("boom"),
			target: ErrPersistence,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestAppError_WithContext(t *testing.T) {
	appError := &AppError{Type: ErrTypeFetch, Message: "fetch failed"}

	result := appError.WithContext("status", 503)

	assert.Same(t, appError, result)
	require.Contains(t, result.Context, "status")
	assert.Equal(t, 503, result.Context["status"])
}

func TestNewAppError(t *testing.T) {
	cause := errors.New("field required")
	got := NewAppError(ErrTypeValidation, "Invalid input", cause)

	assert.Equal(t, ErrTypeValidation, got.Type)
	assert.Equal(t, "Invalid input", got.Message)
	assert.Equal(t, cause, got.Cause)
	assert.NotNil(t, got.Context)
	assert.Empty(t, got.Context)
}

func TestNewSchemaCoercionError(t *testing.T) {
	cause := errors.New("can't convert abc to decimal")
	got := NewSchemaCoercionError(4, "Billed", "abc", cause)

	assert.Equal(t, ErrTypeSchemaCoercion, got.Type)
	assert.Equal(t, 4, got.Context["row"])
	assert.Equal(t, "Billed", got.Context["column"])
	assert.Equal(t, "abc", got.Context["value"])
	assert.Same(t, cause, got.Cause)
}

func TestNewFetchError(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		got := NewFetchError("Failed to fetch HTML content", 500, nil)
		assert.Equal(t, 500, got.Context["status"])
	})

	t.Run("without status", func(t *testing.T) {
		got := NewFetchError("render timed out", 0, errors.New("context deadline exceeded"))
		assert.NotContains(t, got.Context, "status")
		assert.Contains(t, got.Error(), "context deadline exceeded")
	})
}

func TestNewNoSectionsError(t *testing.T) {
	got := NewNoSectionsError("report.html")

	assert.True(t, errors.Is(got, ErrNoSectionsFound))
	assert.Equal(t, "No valid tables found.", got.Message)
	assert.Equal(t, "report.html", got.Context["source"])
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeConfig, TypeOf(fmt.Errorf("load: %w", NewConfigError("bad", nil))))
	assert.Equal(t, ErrTypeParsing, TypeOf(NewParsingError("bad html", nil)))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}
