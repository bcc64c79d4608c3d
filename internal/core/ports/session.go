package ports

import "context"

// SessionRegistry is the port through which the single-logout handler
// terminates a local session. The handle is the opaque value the host
// stored in the correlation mapping; the host decides what clearing and
// invalidating a session means.
type SessionRegistry interface {
	// Terminate clears and invalidates the referenced session. Errors are
	// logged by the caller, never propagated into request processing.
	Terminate(ctx context.Context, sessionHandle string) error
}
