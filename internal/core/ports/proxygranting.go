package ports

import "context"

// ProxyGrantingStore is the port interface for the ephemeral IOU-to-ticket
// registry that enables proxy ticket issuance. Entries are TTL-bounded; a
// lookup is idempotent but not guaranteed to return the same answer twice
// once the entry expires.
type ProxyGrantingStore interface {
	// InsertMapping stores the IOU to proxy-granting-ticket mapping,
	// replacing any previous entry for the IOU.
	InsertMapping(ctx context.Context, iou, ticket string) error

	// GetTicket resolves an IOU. The second return is false when the IOU
	// is unknown or its entry has expired.
	GetTicket(ctx context.Context, iou string) (string, bool, error)

	// RemoveExpiredMappings drops expired entries. A no-op where the
	// backend expires entries natively.
	RemoveExpiredMappings(ctx context.Context) error
}
