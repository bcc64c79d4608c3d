package domain

import (
	"context"
	"errors"
)

// AuthenticationType tags which wire protocol produced a principal.
type AuthenticationType string

const (
	AuthTypeCAS1   AuthenticationType = "CAS1.0"
	AuthTypeCAS2   AuthenticationType = "CAS2.0"
	AuthTypeSAML11 AuthenticationType = "SAML1.1"
)

// ErrNoProxyCapability is returned by GetTicketFor when the principal was
// validated without proxy-granting-ticket support.
var ErrNoProxyCapability = errors.New("principal has no proxy ticket capability")

// ProxyTicketFunc exchanges the principal's proxy-granting ticket for a
// proxy ticket scoped to targetService.
type ProxyTicketFunc func(ctx context.Context, targetService string) (string, error)

// Principal is the authenticated identity plus its backing assertion.
// It lives for the logical session and is discarded on logout or expiry.
type Principal struct {
	assertion *Assertion
	authType  AuthenticationType

	proxyGrantingTicketIOU string
	proxyTicketFn          ProxyTicketFunc
}

// NewPrincipal wraps a validated assertion.
func NewPrincipal(assertion *Assertion, authType AuthenticationType) *Principal {
	return &Principal{
		assertion: assertion,
		authType:  authType,
	}
}

// Name returns the authenticated principal name.
func (p *Principal) Name() string {
	return p.assertion.PrincipalName
}

// Assertion returns the backing assertion.
func (p *Principal) Assertion() *Assertion {
	return p.assertion
}

// AuthenticationType returns the protocol that validated this principal.
func (p *Principal) AuthenticationType() AuthenticationType {
	return p.authType
}

// ProxyGrantingTicketIOU returns the IOU received during validation, or ""
// when proxy support was not negotiated.
func (p *Principal) ProxyGrantingTicketIOU() string {
	return p.proxyGrantingTicketIOU
}

// AttachProxyCapability arms GetTicketFor. Called by the CAS2.0 validator
// when the server response carries a proxy-granting ticket IOU.
func (p *Principal) AttachProxyCapability(iou string, fn ProxyTicketFunc) {
	p.proxyGrantingTicketIOU = iou
	p.proxyTicketFn = fn
}

// GetTicketFor obtains a proxy ticket for a back-end call to targetService.
func (p *Principal) GetTicketFor(ctx context.Context, targetService string) (string, error) {
	if p.proxyTicketFn == nil {
		return "", ErrNoProxyCapability
	}
	return p.proxyTicketFn(ctx, targetService)
}
