package errors

import "fmt"

// ErrorCode represents an agentpress error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"    // 401
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrNotConfigured  ErrorCode = "NOT_CONFIGURED"  // 500, missing credential/connection string
	ErrUnavailable    ErrorCode = "UNAVAILABLE"     // 503, embedding provider down
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error. The reason distinguishes missing,
// malformed, and unknown/revoked credentials for callers and logs.
func NewUnauthorized(reason string) *Error {
	return &Error{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: reason,
	}
}

// NewNotFound creates a 404 error for an unknown identifier.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("entry not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNotConfigured creates a 500 error for a missing required setting.
// This is a deployment problem, not a per-request one.
func NewNotConfigured(setting string) *Error {
	return &Error{
		Code:    ErrNotConfigured,
		Status:  500,
		Message: fmt.Sprintf("%s is not configured", setting),
		Details: map[string]any{"setting": setting},
	}
}

// NewUnavailable creates a 503 error for a failing external dependency.
func NewUnavailable(msg string) *Error {
	return &Error{
		Code:    ErrUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*Error); ok {
		return aErr.Code == code
	}
	return false
}
