package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the security core.
type ErrorCode string

// Validation error codes
const (
	ErrCodeRejected ErrorCode = "CODE_REJECTED"
	ErrSyntax       ErrorCode = "SYNTAX_ERROR"
)

// Sandbox error codes
const (
	ErrOperationLimit ErrorCode = "OPERATION_LIMIT"
	ErrUnknownSymbol  ErrorCode = "UNKNOWN_SYMBOL"
	ErrToolFailed     ErrorCode = "TOOL_FAILED"
)

// Spawn error codes
const (
	ErrSpawnDenied   ErrorCode = "SPAWN_DENIED"
	ErrInvalidPolicy ErrorCode = "INVALID_POLICY"
)

// ErrInternal marks a bug in the embedding application, not adversarial input.
const ErrInternal ErrorCode = "INTERNAL_ERROR"

// Error represents a structured error with code, message, and wrapped cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a new Error wrapping an underlying cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// GetErrorCode extracts the error code from an error, unwrapping as needed.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
