package ports

import (
	"context"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// CorrelationStore is the port interface for the single-logout correlation
// map. ServerKey and ClientKey are each unique within the store; removing
// by either key removes the whole entry and both reverse mappings
// atomically.
type CorrelationStore interface {
	// StoreState records the triple. If the client key already maps to a
	// different server key, the stale triple is evicted first so a reused
	// local session never leaves a duplicate mapping behind.
	StoreState(ctx context.Context, mapping domain.SessionMapping) error

	// TakeByServerKey looks up and removes the entry for a server key in
	// one step. The second return is false when the key is unknown.
	TakeByServerKey(ctx context.Context, serverKey string) (domain.SessionMapping, bool, error)

	// RemoveState drops the entry for a client key. Used when a session
	// expires naturally without a CAS-initiated logout.
	RemoveState(ctx context.Context, clientKey string) error
}
