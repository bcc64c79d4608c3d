package domain

import (
	"fmt"
	"net/http"
)

// ErrorCode represents categorized validation error types.
// These codes are stable and can be used for programmatic error handling.
type ErrorCode string

const (
	// ErrCodeTransport covers network/IO failures reaching the CAS server.
	ErrCodeTransport ErrorCode = "transport_failure"

	// ErrCodeProtocol covers malformed or unexpected response shapes.
	ErrCodeProtocol ErrorCode = "protocol_failure"

	// ErrCodeServerRejection covers explicit authenticationFailure / "no"
	// responses; the server-provided code and message are preserved.
	ErrCodeServerRejection ErrorCode = "server_rejection"

	// ErrCodeConfig covers invalid client configuration, fatal at startup.
	ErrCodeConfig ErrorCode = "config_invalid"
)

// CAS server failure codes carried inside an authenticationFailure element.
const (
	ServerCodeInvalidRequest = "INVALID_REQUEST"
	ServerCodeInvalidTicket  = "INVALID_TICKET"
	ServerCodeInvalidService = "INVALID_SERVICE"
	ServerCodeInternalError  = "INTERNAL_ERROR"
)

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// HTTPStatus returns the HTTP status code a driving adapter should answer
// with for this error code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeServerRejection:
		return http.StatusUnauthorized
	case ErrCodeTransport, ErrCodeProtocol:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError is a structured ticket validation failure with code,
// message, and optional cause.
type ValidationError struct {
	Code ErrorCode

	// ServerCode is the failure code the CAS server reported
	// (INVALID_TICKET, ...). Only set for ErrCodeServerRejection.
	ServerCode string

	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.ServerCode != "" {
		return fmt.Sprintf("%s: %s", e.ServerCode, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// TransportError creates a transport failure wrapping the network error.
func TransportError(message string, cause error) *ValidationError {
	return &ValidationError{Code: ErrCodeTransport, Message: message, Cause: cause}
}

// ProtocolError creates a malformed/unexpected-response failure.
func ProtocolError(message string) *ValidationError {
	return &ValidationError{Code: ErrCodeProtocol, Message: message}
}

// ServerRejectionError creates a failure carrying the server's own code and
// message intact.
func ServerRejectionError(serverCode, message string) *ValidationError {
	return &ValidationError{Code: ErrCodeServerRejection, ServerCode: serverCode, Message: message}
}

// ConfigError creates a configuration error.
func ConfigError(message string) *ValidationError {
	return &ValidationError{Code: ErrCodeConfig, Message: message}
}
