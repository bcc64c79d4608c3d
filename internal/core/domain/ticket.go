package domain

import "time"

// AuthenticationTicket is the unit stored for SSO and revocation decisions.
// The service ticket string is the storage key and is unique per store.
type AuthenticationTicket struct {
	// ServiceTicket is the one-time credential this ticket was minted from.
	ServiceTicket string

	// PrincipalName is the owning user, as asserted by the server.
	PrincipalName string

	// ServiceName is the service URL the ticket was issued for.
	ServiceName string

	// ClientHostAddress is the address of the browser that redeemed the ticket.
	ClientHostAddress string

	// Assertion is the full validated assertion.
	Assertion *Assertion

	// ValidFrom is when this ticket was created (or last refreshed).
	ValidFrom time.Time

	// ValidUntil is the effective expiry: the intersection of the
	// assertion's own window and ValidFrom + configured timeout.
	ValidUntil time.Time
}

// NewAuthenticationTicket wraps a validated assertion for storage.
// The validity window is clamped to the assertion's upper bound when the
// server specified one.
func NewAuthenticationTicket(serviceTicket string, assertion *Assertion, serviceName, clientHost string, timeout time.Duration, now time.Time) *AuthenticationTicket {
	t := &AuthenticationTicket{
		ServiceTicket:     serviceTicket,
		PrincipalName:     assertion.PrincipalName,
		ServiceName:       serviceName,
		ClientHostAddress: clientHost,
		Assertion:         assertion,
	}
	t.setWindow(timeout, now)
	return t
}

// Expired reports whether the ticket's validity window has passed.
func (t *AuthenticationTicket) Expired(now time.Time) bool {
	return now.After(t.ValidUntil)
}

// Touch refreshes the validity window from now, re-applying the same
// intersection rule used at creation.
func (t *AuthenticationTicket) Touch(timeout time.Duration, now time.Time) {
	t.setWindow(timeout, now)
}

func (t *AuthenticationTicket) setWindow(timeout time.Duration, now time.Time) {
	t.ValidFrom = now
	t.ValidUntil = now.Add(timeout)
	if t.Assertion.HasUpperBound() && t.Assertion.ValidUntil.Before(t.ValidUntil) {
		t.ValidUntil = t.Assertion.ValidUntil
	}
}
