// Package cassp is a CAS (Central Authentication Service) client for Go
// services: ticket validation over the CAS 1.0, CAS 2.0, and SAML 1.1
// protocols, ticket storage, single logout, gateway authentication, and
// proxy ticket support.
package cassp

import (
	"github.com/philiph/go-cas-sp/internal/adapters/driven/validation"
	"github.com/philiph/go-cas-sp/internal/adapters/driving/httpsp"
	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// Re-export domain types.
type Assertion = domain.Assertion
type Principal = domain.Principal
type AuthenticationTicket = domain.AuthenticationTicket
type AuthenticationType = domain.AuthenticationType
type GatewayStatus = domain.GatewayStatus
type SessionMapping = domain.SessionMapping

const (
	AuthTypeCAS1   = domain.AuthTypeCAS1
	AuthTypeCAS2   = domain.AuthTypeCAS2
	AuthTypeSAML11 = domain.AuthTypeSAML11
)

const (
	GatewayNotAttempted = domain.GatewayNotAttempted
	GatewayAttempting   = domain.GatewayAttempting
	GatewaySuccess      = domain.GatewaySuccess
	GatewayFailed       = domain.GatewayFailed
)

// Re-export port interfaces for hosts that swap implementations.
type TicketValidator = ports.TicketValidator
type TicketStore = ports.TicketStore
type CorrelationStore = ports.CorrelationStore
type ProxyGrantingStore = ports.ProxyGrantingStore
type SessionRegistry = ports.SessionRegistry
type Clock = ports.Clock

var (
	NewAssertion = domain.NewAssertion
	NewPrincipal = domain.NewPrincipal

	NewCAS1Validator   = validation.NewCAS1Validator
	NewCAS2Validator   = validation.NewCAS2Validator
	NewSAML11Validator = validation.NewSAML11Validator
	SanitizeServiceURL = validation.SanitizeServiceURL

	TicketFromContext = httpsp.TicketFromContext
)
