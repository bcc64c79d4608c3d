// Package proxygranting provides the ephemeral IOU-to-ticket registry that
// backs proxy ticket issuance.
package proxygranting

import (
	"context"
	"sync"
	"time"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// DefaultTTL bounds how long an IOU mapping stays resolvable.
const DefaultTTL = 180 * time.Second

type entry struct {
	ticket   string
	inserted time.Time
}

// MemoryRegistry is the in-process ProxyGrantingStore: a mutex-guarded map
// with expiry checked on read and by RemoveExpiredMappings.
type MemoryRegistry struct {
	ttl   time.Duration
	clock ports.Clock

	mu      sync.Mutex
	entries map[string]entry
}

// NewMemoryRegistry creates a registry with the given TTL (DefaultTTL when
// zero). The clock defaults to the real one.
func NewMemoryRegistry(ttl time.Duration, clock ports.Clock) *MemoryRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = ports.RealClock{}
	}
	return &MemoryRegistry{
		ttl:     ttl,
		clock:   clock,
		entries: map[string]entry{},
	}
}

// InsertMapping stores the IOU mapping, replacing any previous entry.
func (r *MemoryRegistry) InsertMapping(ctx context.Context, iou, ticket string) error {
	r.mu.Lock()
	r.entries[iou] = entry{ticket: ticket, inserted: r.clock.Now()}
	r.mu.Unlock()
	return nil
}

// GetTicket resolves an IOU. Expired entries are dropped on the spot.
func (r *MemoryRegistry) GetTicket(ctx context.Context, iou string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[iou]
	if !ok {
		return "", false, nil
	}
	if r.clock.Now().Sub(e.inserted) > r.ttl {
		delete(r.entries, iou)
		return "", false, nil
	}
	return e.ticket, true, nil
}

// RemoveExpiredMappings drops every expired entry.
func (r *MemoryRegistry) RemoveExpiredMappings(ctx context.Context) error {
	now := r.clock.Now()
	r.mu.Lock()
	for iou, e := range r.entries {
		if now.Sub(e.inserted) > r.ttl {
			delete(r.entries, iou)
		}
	}
	r.mu.Unlock()
	return nil
}

// Ensure MemoryRegistry implements ports.ProxyGrantingStore
var _ ports.ProxyGrantingStore = (*MemoryRegistry)(nil)
