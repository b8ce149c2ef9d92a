package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given application error code
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingFeature   = "MISSING_FEATURE"
	CodeSchemaMismatch   = "SCHEMA_MISMATCH"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeAttributionShape = "ATTRIBUTION_SHAPE"
	CodeBatchScoring     = "BATCH_SCORING"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// MissingFeature reports a request payload lacking required model features.
// The message carries the full list of missing names so callers can act on it.
func MissingFeature(names []string) *AppError {
	return New(CodeMissingFeature, fmt.Sprintf("missing required features: %v", names))
}

// SchemaMismatch reports a bulk upload whose header lacks expected columns.
func SchemaMismatch(columns []string) *AppError {
	return New(CodeSchemaMismatch, fmt.Sprintf("upload is missing expected columns: %v", columns))
}

// ModelUnavailable reports that the classifier artifact never loaded.
func ModelUnavailable(message string) *AppError {
	return New(CodeModelUnavailable, message)
}

// AttributionShape reports an attribution backend returning an
// unrecognized contribution shape.
func AttributionShape(message string) *AppError {
	return New(CodeAttributionShape, message)
}

// BatchScoring reports a bulk batch aborted because a row failed to score.
func BatchScoring(row int, cause error) *AppError {
	return &AppError{
		Code:    CodeBatchScoring,
		Message: fmt.Sprintf("batch aborted: row %d failed to score", row),
		Cause:   cause,
	}
}
