package cassp

import (
	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// Re-export error types from the domain package.
type ErrorCode = domain.ErrorCode
type ValidationError = domain.ValidationError

// Re-export error code constants.
const (
	ErrCodeTransport       = domain.ErrCodeTransport
	ErrCodeProtocol        = domain.ErrCodeProtocol
	ErrCodeServerRejection = domain.ErrCodeServerRejection
	ErrCodeConfig          = domain.ErrCodeConfig
)

// Re-export CAS server rejection codes.
const (
	ServerCodeInvalidRequest = domain.ServerCodeInvalidRequest
	ServerCodeInvalidTicket  = domain.ServerCodeInvalidTicket
	ServerCodeInvalidService = domain.ServerCodeInvalidService
	ServerCodeInternalError  = domain.ServerCodeInternalError
)

// Re-export error constructors.
var (
	TransportError       = domain.TransportError
	ProtocolError        = domain.ProtocolError
	ServerRejectionError = domain.ServerRejectionError
	ConfigError          = domain.ConfigError
)
