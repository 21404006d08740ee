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
		{"missing column", ErrTypeMissingColumn, "MISSING_COLUMN"},
		{"type mismatch", ErrTypeTypeMismatch, "TYPE_MISMATCH"},
		{"date parse", ErrTypeDateParse, "DATE_PARSE"},
		{"empty column", ErrTypeEmptyColumn, "EMPTY_COLUMN"},
		{"parsing", ErrTypeParsing, "PARSING"},
		{"storage", ErrTypeStorage, "STORAGE"},
		{"validation", ErrTypeValidation, "VALIDATION"},
		{"not found", ErrTypeNotFound, "NOT_FOUND"},
		{"config", ErrTypeConfig, "CONFIG"},
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
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeStorage, Message: "write failed"},
			wantMessage: "[STORAGE] write failed",
		},
		{
			name:        "error with cause",
			appError:    &AppError{Type: ErrTypeParsing, Message: "bad header", Cause: fmt.Errorf("EOF")},
			wantMessage: "[PARSING] bad header: EOF",
		},
		{
			name:        "stage prefixes message",
			appError:    NewMissingColumnError("derive", "age"),
			wantMessage: `[MISSING_COLUMN] derive: required column "age" not found`,
		},
		{
			name:        "empty message",
			appError:    &AppError{Type: ErrTypeValidation},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_IsMatchesByType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"missing column", NewMissingColumnError("bin", "age"), ErrMissingColumn},
		{"type mismatch", NewTypeMismatchError("bin", "age", "numeric", "string"), ErrTypeMismatch},
		{"cell type mismatch", NewValueTypeMismatchError("load", "age", 3, "forty", "int", nil), ErrTypeMismatch},
		{"date parse", NewDateParseError("time", "join_date", 2, "yesterday", nil), ErrDateParse},
		{"empty column", NewEmptyColumnError("anomaly", "salary"), ErrEmptyColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
			assert.True(t, IsTableError(tt.err))
		})
	}

	assert.NotErrorIs(t, NewMissingColumnError("bin", "age"), ErrEmptyColumn)
	assert.False(t, IsTableError(NewStorageError("disk full", nil)))
	assert.False(t, IsTableError(errors.New("plain")))
}

func TestAppError_Context(t *testing.T) {
	err := NewDateParseError("time", "join_date", 4, "31/31/2020", errors.New("month out of range"))

	assert.Equal(t, "time", err.Stage())
	assert.Equal(t, "join_date", err.Column())
	assert.Equal(t, 4, err.Context[ContextRow])
	assert.Equal(t, "31/31/2020", err.Context[ContextValue])
	assert.Contains(t, err.Error(), `"31/31/2020"`)
	assert.EqualError(t, err.Unwrap(), "month out of range")
}

func TestAppError_WithContextInitialisesMap(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig, Message: "bad config"}
	err.WithContext("file", "config.yaml")

	require.NotNil(t, err.Context)
	assert.Equal(t, "config.yaml", err.Context["file"])
}

func TestInStage(t *testing.T) {
	t.Run("stamps stage on bare error", func(t *testing.T) {
		err := NewEmptyColumnError("", "score")
		got := InStage(err, "anomaly")

		var appErr *AppError
		require.True(t, errors.As(got, &appErr))
		assert.Equal(t, "anomaly", appErr.Stage())
		assert.Contains(t, got.Error(), "anomaly: ")
	})

	t.Run("keeps existing stage", func(t *testing.T) {
		err := NewEmptyColumnError("anomaly", "score")
		InStage(err, "other")
		assert.Equal(t, "anomaly", err.Stage())
	})

	t.Run("leaves foreign errors alone", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Same(t, plain, InStage(plain, "derive"))
	})
}
