package validation

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// CAS1Validator implements the CAS 1.0 plaintext validation protocol.
// The server answers two lines: "yes" plus the principal name, or "no".
// The protocol releases no attributes.
type CAS1Validator struct {
	client        serverClient
	artifactParam string
	serviceParam  string
	renew         bool
}

// NewCAS1Validator creates a validator against the given CAS server prefix,
// e.g. "https://cas.example.edu/cas".
func NewCAS1Validator(serverPrefix string, opts ...Option) *CAS1Validator {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	v := &CAS1Validator{
		client:        newServerClient(serverPrefix, o),
		artifactParam: o.artifactParam,
		serviceParam:  o.serviceParam,
		renew:         o.renew,
	}
	if v.artifactParam == "" {
		v.artifactParam = "ticket"
	}
	if v.serviceParam == "" {
		v.serviceParam = "service"
	}
	return v
}

// ArtifactParameterName returns the artifact query parameter name.
func (v *CAS1Validator) ArtifactParameterName() string { return v.artifactParam }

// ServiceParameterName returns the service query parameter name.
func (v *CAS1Validator) ServiceParameterName() string { return v.serviceParam }

// ValidationPath returns the endpoint path relative to the server prefix.
func (v *CAS1Validator) ValidationPath() string { return "validate" }

// Validate exchanges a service ticket for a principal over CAS 1.0.
func (v *CAS1Validator) Validate(ctx context.Context, artifact, serviceURL string) (*domain.Principal, error) {
	query := url.Values{}
	query.Set(v.artifactParam, artifact)
	query.Set(v.serviceParam, SanitizeServiceURL(serviceURL, v.artifactParam))
	if v.renew {
		query.Set("renew", "true")
	}

	body, err := v.client.get(ctx, v.ValidationPath(), query)
	if err != nil {
		v.client.recordValidation(string(domain.AuthTypeCAS1), false)
		return nil, err
	}

	principal, err := v.parse(string(body))
	v.client.recordValidation(string(domain.AuthTypeCAS1), err == nil)
	if err != nil {
		if v.client.logger != nil {
			v.client.logger.Info("CAS 1.0 validation failed", zap.Error(err))
		}
		return nil, err
	}
	return principal, nil
}

func (v *CAS1Validator) parse(body string) (*domain.Principal, error) {
	if strings.TrimSpace(body) == "" {
		return nil, domain.ProtocolError("empty CAS 1.0 validation response")
	}

	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	switch strings.TrimSpace(lines[0]) {
	case "yes":
		if len(lines) < 2 || strings.TrimSpace(lines[1]) == "" {
			return nil, domain.ProtocolError("CAS 1.0 response missing principal name")
		}
		now := v.client.clock.Now()
		assertion, err := domain.NewAssertion(strings.TrimSpace(lines[1]), now, time.Time{}, nil)
		if err != nil {
			return nil, domain.ProtocolError(err.Error())
		}
		return domain.NewPrincipal(assertion, domain.AuthTypeCAS1), nil
	case "no":
		return nil, domain.ServerRejectionError("", "CAS server rejected the ticket")
	default:
		return nil, domain.ProtocolError("unrecognized CAS 1.0 response: " + strings.TrimSpace(lines[0]))
	}
}

// Ensure CAS1Validator implements ports.TicketValidator
var _ ports.TicketValidator = (*CAS1Validator)(nil)
