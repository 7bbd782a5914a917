package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	// ErrorTypeUnknown represents an unknown error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork represents transport failures: connection errors,
	// timeouts and unreadable bodies
	ErrorTypeNetwork
	// ErrorTypeAuthentication is returned when the service answers 401
	ErrorTypeAuthentication
	// ErrorTypeAccessDenied is returned when the service answers 403
	ErrorTypeAccessDenied
	// ErrorTypeAPI represents an unexpected HTTP status without a usable body
	ErrorTypeAPI
	// ErrorTypeProtocol represents a response that violates the wire protocol
	ErrorTypeProtocol
	// ErrorTypeStatement represents a server-side error reported for one
	// statement of a batch
	ErrorTypeStatement
	// ErrorTypeValidation represents bad input rejected before any network call
	ErrorTypeValidation
	// ErrorTypeNotFound represents a missing table or column
	ErrorTypeNotFound
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeAccessDenied:
		return "access denied"
	case ErrorTypeAPI:
		return "api"
	case ErrorTypeProtocol:
		return "protocol"
	case ErrorTypeStatement:
		return "statement"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error represents a structured error with type information
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	// StatementIndex is the 0-based position of the failing statement in its
	// batch. Only meaningful for ErrorTypeStatement.
	StatementIndex int
	Cause          error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsType checks if the error is of a specific type
func (e *Error) IsType(errorType ErrorType) bool {
	return e.Type == errorType
}

// NewError creates a new Error with the specified type and message
func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error with the specified type, message, and underlying cause
func NewErrorWithCause(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *Error {
	return NewErrorWithCause(ErrorTypeNetwork, message, cause)
}

// NewProtocolError creates an error for a malformed or inconsistent response
func NewProtocolError(message string, cause error) *Error {
	return NewErrorWithCause(ErrorTypeProtocol, message, cause)
}

// NewStatementError creates an error for a statement the server rejected
func NewStatementError(index int, message string) *Error {
	return &Error{
		Type:           ErrorTypeStatement,
		Message:        fmt.Sprintf("statement %d failed: %s", index, message),
		StatementIndex: index,
	}
}

// NewAPIError creates an API-related error with status code
func NewAPIError(message string, statusCode int) *Error {
	return &Error{
		Type:       ErrorTypeAPI,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewValidationError creates a validation-related error
func NewValidationError(message string) *Error {
	return NewError(ErrorTypeValidation, message)
}

// NewNotFoundError creates an error for a missing table or column
func NewNotFoundError(message string) *Error {
	return NewError(ErrorTypeNotFound, message)
}

func isType(err error, errorType ErrorType) bool {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.IsType(errorType)
	}
	return false
}

// IsNetworkError checks if an error is network-related
func IsNetworkError(err error) bool { return isType(err, ErrorTypeNetwork) }

// IsAuthenticationError checks if the service asked for credentials
func IsAuthenticationError(err error) bool { return isType(err, ErrorTypeAuthentication) }

// IsAccessDeniedError checks if the service refused the credentials
func IsAccessDeniedError(err error) bool { return isType(err, ErrorTypeAccessDenied) }

// IsAPIError checks if an error is API-related
func IsAPIError(err error) bool { return isType(err, ErrorTypeAPI) }

// IsProtocolError checks if the response violated the wire protocol
func IsProtocolError(err error) bool { return isType(err, ErrorTypeProtocol) }

// IsStatementError checks if a statement was rejected by the server
func IsStatementError(err error) bool { return isType(err, ErrorTypeStatement) }

// IsValidationError checks if an error is validation-related
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFoundError checks if a table or column was missing
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// wrapHTTPStatus maps the status codes that never carry a usable body.
func wrapHTTPStatus(resp *http.Response, cause error) *Error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &Error{Type: ErrorTypeAuthentication, Message: "authentication required", StatusCode: resp.StatusCode, Cause: cause}
	case http.StatusForbidden:
		return &Error{Type: ErrorTypeAccessDenied, Message: "access denied", StatusCode: resp.StatusCode, Cause: cause}
	default:
		return nil
	}
}

// drainAndClose consumes what is left of a response body so the underlying
// connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
