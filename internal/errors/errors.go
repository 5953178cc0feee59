package errors

import (
	"errors"
	"fmt"
)

// AppError carries a machine-readable code alongside the message
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

// New returns an AppError with no cause
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap prefixes err with message. The code of the first AppError in the
// chain is kept; foreign errors become INTERNAL_ERROR.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
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

// Wrapf is Wrap with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode replaces the code of err, or attaches one to a foreign error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the code of the first AppError in the chain, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeDataSource    = "DATA_SOURCE_ERROR"
	CodeMissingColumn = "MISSING_COLUMN"
	CodeNonNumeric    = "NON_NUMERIC"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
)

// ConfigInvalid reports a configuration or layout that cannot be used
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// DataSource reports a record source that could not be read
func DataSource(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeDataSource,
		Message: message,
		Cause:   cause,
	}
}

// MissingColumn reports a column the patient table does not carry
func MissingColumn(column string) *AppError {
	return New(CodeMissingColumn, fmt.Sprintf("column %q not found", column))
}

// NonNumeric reports a column whose cells cannot be read as numbers
func NonNumeric(column, reason string) *AppError {
	return New(CodeNonNumeric, fmt.Sprintf("column %q %s", column, reason))
}

// NotFound reports an unknown section, chart or document
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// InternalError reports a failure with no more specific code
func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// InvalidInput reports a request value outside what is offered
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
