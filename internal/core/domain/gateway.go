package domain

import "fmt"

// GatewayStatus tracks whether silent ("gateway") authentication has been
// attempted for a browser. The marker survives the redirect round trip to
// the CAS server, so it is held outside the main session.
type GatewayStatus string

const (
	// GatewayNotAttempted means no gateway round trip has happened yet.
	GatewayNotAttempted GatewayStatus = "NotAttempted"

	// GatewayAttempting means the browser was redirected to the server
	// with the gateway flag and has not come back yet.
	GatewayAttempting GatewayStatus = "Attempting"

	// GatewaySuccess means the browser returned from the gateway redirect
	// carrying a ticket.
	GatewaySuccess GatewayStatus = "Success"

	// GatewayFailed means the browser returned without a ticket. The
	// gateway must not be retried until the marker is cleared, otherwise
	// an unauthenticated page would loop between app and server forever.
	GatewayFailed GatewayStatus = "Failed"
)

// ParseGatewayStatus maps a stored marker value back to a status.
// Unknown values parse as NotAttempted so a corrupted marker degrades to a
// fresh attempt rather than an error on every request.
func ParseGatewayStatus(value string) GatewayStatus {
	switch GatewayStatus(value) {
	case GatewayAttempting, GatewaySuccess, GatewayFailed:
		return GatewayStatus(value)
	default:
		return GatewayNotAttempted
	}
}

// CanAttempt reports whether a new gateway round trip is allowed.
func (s GatewayStatus) CanAttempt() bool {
	return s == GatewayNotAttempted
}

// Resolve returns the terminal status for a finished attempt.
func (s GatewayStatus) Resolve(ticketReceived bool) (GatewayStatus, error) {
	if s != GatewayAttempting {
		return s, fmt.Errorf("gateway resolve from %q: no attempt in flight", string(s))
	}
	if ticketReceived {
		return GatewaySuccess, nil
	}
	return GatewayFailed, nil
}
