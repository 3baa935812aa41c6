package errors

import (
	stderrors "errors"
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

// Wrap wraps an error with additional context. The code of a wrapped AppError
// is preserved so callers can still branch on it.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
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

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"

	CodeDataFormat      = "DATA_FORMAT_ERROR"
	CodeQueryEngine     = "QUERY_ENGINE_ERROR"
	CodeQueryExpression = "QUERY_EXPRESSION_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// DataFormatError reports an upload that could not be parsed as tabular data.
func DataFormatError(message string, cause error) *AppError {
	return &AppError{Code: CodeDataFormat, Message: message, Cause: cause}
}

// QueryEngineError reports a failure of the natural-language answering backend.
// The backend's own message is kept as the cause.
func QueryEngineError(message string, cause error) *AppError {
	return &AppError{Code: CodeQueryEngine, Message: message, Cause: cause}
}

// QueryExpressionError reports a malformed or invalid filter expression.
func QueryExpressionError(message string, cause error) *AppError {
	return &AppError{Code: CodeQueryExpression, Message: message, Cause: cause}
}

func IsDataFormat(err error) bool      { return HasCode(err, CodeDataFormat) }
func IsQueryEngine(err error) bool     { return HasCode(err, CodeQueryEngine) }
func IsQueryExpression(err error) bool { return HasCode(err, CodeQueryExpression) }
func IsNotFound(err error) bool        { return HasCode(err, CodeNotFound) }
