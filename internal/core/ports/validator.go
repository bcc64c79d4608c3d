package ports

import (
	"context"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// TicketValidator is the port interface for the wire-protocol validators.
// Implementations are stateless across requests and safe for concurrent use;
// each Validate call is a single synchronous round trip to the CAS server
// bounded only by the caller's context and the transport timeout.
type TicketValidator interface {
	// Validate exchanges an artifact for a verified principal.
	// Failures are *domain.ValidationError values.
	Validate(ctx context.Context, artifact, serviceURL string) (*domain.Principal, error)

	// ArtifactParameterName is the query parameter the protocol uses for
	// the artifact ("ticket" for CAS, "SAMLart" for SAML 1.1).
	ArtifactParameterName() string

	// ServiceParameterName is the query parameter the protocol uses for
	// the service URL ("service" for CAS, "TARGET" for SAML 1.1).
	ServiceParameterName() string

	// ValidationPath is the endpoint path relative to the server prefix.
	ValidationPath() string
}
