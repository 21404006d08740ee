package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMissingColumn ErrorType = "MISSING_COLUMN"
	ErrTypeTypeMismatch  ErrorType = "TYPE_MISMATCH"
	ErrTypeDateParse     ErrorType = "DATE_PARSE"
	ErrTypeEmptyColumn   ErrorType = "EMPTY_COLUMN"
	ErrTypeParsing       ErrorType = "PARSING"
	ErrTypeStorage       ErrorType = "STORAGE"
	ErrTypeValidation    ErrorType = "VALIDATION"
	ErrTypeNotFound      ErrorType = "NOT_FOUND"
	ErrTypeConfig        ErrorType = "CONFIG"
)

// Context keys attached by the table-transform errors
const (
	ContextStage  = "stage"
	ContextColumn = "column"
	ContextRow    = "row"
	ContextValue  = "value"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Sentinels for errors.Is. Any *AppError of the same Type matches.
var (
	ErrMissingColumn = &AppError{Type: ErrTypeMissingColumn}
	ErrTypeMismatch  = &AppError{Type: ErrTypeTypeMismatch}
	ErrDateParse     = &AppError{Type: ErrTypeDateParse}
	ErrEmptyColumn   = &AppError{Type: ErrTypeEmptyColumn}
	ErrSourceMissing = &AppError{Type: ErrTypeNotFound}
)

// Error implements the error interface.
// The stage, when known, prefixes the message.
func (e *AppError) Error() string {
	msg := e.Message
	if stage := e.Stage(); stage != "" {
		msg = stage + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Stage returns the stage recorded in the error context, if any
func (e *AppError) Stage() string {
	stage, _ := e.Context[ContextStage].(string)
	return stage
}

// Column returns the column recorded in the error context, if any
func (e *AppError) Column() string {
	column, _ := e.Context[ContextColumn].(string)
	return column
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

// InStage stamps the stage onto err when it is an AppError without one.
// Other errors are returned unchanged.
func InStage(err error, stage string) error {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Stage() == "" {
		appErr.WithContext(ContextStage, stage)
	}
	return err
}

// Helper functions for the table-transform taxonomy

// NewMissingColumnError reports a required source column that is absent
func NewMissingColumnError(stage, column string) *AppError {
	return NewAppError(ErrTypeMissingColumn, fmt.Sprintf("required column %q not found", column), nil).
		WithContext(ContextStage, stage).
		WithContext(ContextColumn, column)
}

// NewTypeMismatchError reports a column that cannot be read as the required kind
func NewTypeMismatchError(stage, column, want, got string) *AppError {
	return NewAppError(ErrTypeTypeMismatch, fmt.Sprintf("column %q is %s, want %s", column, got, want), nil).
		WithContext(ContextStage, stage).
		WithContext(ContextColumn, column)
}

// NewValueTypeMismatchError reports a single cell that cannot be coerced
func NewValueTypeMismatchError(stage, column string, row int, value, want string, cause error) *AppError {
	return NewAppError(ErrTypeTypeMismatch, fmt.Sprintf("column %q row %d: value %q is not %s", column, row, value, want), cause).
		WithContext(ContextStage, stage).
		WithContext(ContextColumn, column).
		WithContext(ContextRow, row).
		WithContext(ContextValue, value)
}

// NewDateParseError reports a date cell that matches no supported layout
func NewDateParseError(stage, column string, row int, value string, cause error) *AppError {
	return NewAppError(ErrTypeDateParse, fmt.Sprintf("column %q row %d: cannot parse %q as a date", column, row, value), cause).
		WithContext(ContextStage, stage).
		WithContext(ContextColumn, column).
		WithContext(ContextRow, row).
		WithContext(ContextValue, value)
}

// NewEmptyColumnError reports a statistic requested over zero non-missing values
func NewEmptyColumnError(stage, column string) *AppError {
	return NewAppError(ErrTypeEmptyColumn, fmt.Sprintf("column %q has no non-missing values", column), nil).
		WithContext(ContextStage, stage).
		WithContext(ContextColumn, column)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsTableError reports whether err belongs to the fatal table-transform taxonomy
func IsTableError(err error) bool {
	return stderrors.Is(err, ErrMissingColumn) ||
		stderrors.Is(err, ErrTypeMismatch) ||
		stderrors.Is(err, ErrDateParse) ||
		stderrors.Is(err, ErrEmptyColumn)
}
