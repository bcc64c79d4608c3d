package ports

import (
	"context"
	"errors"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// TicketStore is the port interface for authentication ticket persistence.
// At most one live ticket exists per service ticket key. Implementations
// serialize their own read-modify-write sequences; callers never hold a
// store-wide lock.
type TicketStore interface {
	// Insert stores a ticket under its service ticket key. The ticket's
	// ValidUntil is the storage expiry.
	Insert(ctx context.Context, ticket *domain.AuthenticationTicket) error

	// Get retrieves a ticket. The second return is false when the key is
	// unknown or the entry has been revoked.
	Get(ctx context.Context, serviceTicket string) (*domain.AuthenticationTicket, bool, error)

	// Contains reports whether a live ticket exists for the key.
	Contains(ctx context.Context, serviceTicket string) (bool, error)

	// Revoke destroys the ticket. Returns false when no live ticket was
	// found; revoking twice is safe.
	Revoke(ctx context.Context, serviceTicket string) (bool, error)

	// RevokeAllForUser destroys every ticket owned by the named principal.
	// The name comparison is case-insensitive.
	RevokeAllForUser(ctx context.Context, principalName string) error

	// GetAll returns every live ticket.
	GetAll(ctx context.Context) ([]*domain.AuthenticationTicket, error)

	// GetAllForUser returns every live ticket owned by the named
	// principal, compared case-insensitively.
	GetAllForUser(ctx context.Context, principalName string) ([]*domain.AuthenticationTicket, error)

	// SweepExpired removes expired entries. Backends that expire entries
	// natively may make this a no-op.
	SweepExpired(ctx context.Context) error

	// VerifyIncoming gates a request-supplied ticket against the stored
	// one: the key must exist, ticket values must match exactly, neither
	// side may be expired (the incoming one is revoked if it is), and the
	// principal names must match case-insensitively. Mismatches are
	// logged and resolved to false, never raised - this runs on every
	// request and must not break unrelated traffic.
	VerifyIncoming(ctx context.Context, candidate *domain.AuthenticationTicket) bool
}

// ErrTicketNotFound is returned by backends when an operation requires a
// ticket that does not exist.
var ErrTicketNotFound = errors.New("authentication ticket not found")
