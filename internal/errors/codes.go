package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error type for recognition operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeUnsupportedCulture indicates no model exists for the culture and fallback is disabled.
	ErrCodeUnsupportedCulture ErrorCode = "UNSUPPORTED_CULTURE"
	// ErrCodeRegexBudgetExceeded indicates a pattern evaluation hit its match timeout.
	ErrCodeRegexBudgetExceeded ErrorCode = "REGEX_BUDGET_EXCEEDED"
	// ErrCodeOutOfRange indicates a resolved numeral outside its calendar bounds.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"
	// ErrCodeParseFailed indicates a candidate could not be resolved.
	ErrCodeParseFailed ErrorCode = "PARSE_FAILED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// RecognizerError represents a structured error for recognition operations.
type RecognizerError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *RecognizerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RecognizerError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *RecognizerError) WithContext(key string, value interface{}) *RecognizerError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *RecognizerError) GetCode() ErrorCode {
	return e.Code
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *RecognizerError {
	return &RecognizerError{Code: ErrCodeInvalidArgument, Message: msg}
}

// UnsupportedCulture creates an unsupported culture error.
func UnsupportedCulture(culture string) *RecognizerError {
	return &RecognizerError{
		Code:    ErrCodeUnsupportedCulture,
		Message: fmt.Sprintf("culture not supported: %s", culture),
	}
}

// RegexBudgetExceeded creates a regex budget error for the named pattern.
func RegexBudgetExceeded(pattern string, cause error) *RecognizerError {
	return &RecognizerError{
		Code:    ErrCodeRegexBudgetExceeded,
		Message: fmt.Sprintf("pattern %s exceeded its match budget", pattern),
		Cause:   cause,
	}
}

// OutOfRange creates an out of range error for a resolved field.
func OutOfRange(field string, value int) *RecognizerError {
	return &RecognizerError{
		Code:    ErrCodeOutOfRange,
		Message: fmt.Sprintf("%s out of range: %d", field, value),
	}
}

// ParseFailed creates a parse failure error.
func ParseFailed(msg string) *RecognizerError {
	return &RecognizerError{Code: ErrCodeParseFailed, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *RecognizerError {
	return &RecognizerError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *RecognizerError {
	return &RecognizerError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error chain carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	var re *RecognizerError
	if stderrors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a RecognizerError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var re *RecognizerError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return defaultCode
}
