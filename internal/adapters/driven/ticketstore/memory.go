package ticketstore

import (
	"context"
	"strings"
	"sync"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// MemoryStore is the in-process reference TicketStore: a map guarded by a
// single mutex. Expired entries are dropped on read and by SweepExpired.
type MemoryStore struct {
	opts storeOptions

	mu      sync.RWMutex
	tickets map[string]domain.AuthenticationTicket
}

// NewMemoryStore creates an empty in-memory ticket store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	return &MemoryStore{
		opts:    newStoreOptions(opts),
		tickets: map[string]domain.AuthenticationTicket{},
	}
}

// Insert stores a ticket under its service ticket key, replacing any
// previous entry for the key.
func (s *MemoryStore) Insert(ctx context.Context, ticket *domain.AuthenticationTicket) error {
	s.mu.Lock()
	s.tickets[ticket.ServiceTicket] = *ticket
	s.mu.Unlock()
	s.opts.recordStored()
	return nil
}

// Get retrieves a live ticket. Expired entries are removed on the spot.
func (s *MemoryStore) Get(ctx context.Context, serviceTicket string) (*domain.AuthenticationTicket, bool, error) {
	s.mu.RLock()
	entry, ok := s.tickets[serviceTicket]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if entry.Expired(s.opts.clock.Now()) {
		s.mu.Lock()
		delete(s.tickets, serviceTicket)
		s.mu.Unlock()
		return nil, false, nil
	}

	copied := entry
	return &copied, true, nil
}

// Contains reports whether a live ticket exists for the key.
func (s *MemoryStore) Contains(ctx context.Context, serviceTicket string) (bool, error) {
	_, ok, err := s.Get(ctx, serviceTicket)
	return ok, err
}

// Revoke destroys the ticket. The second revocation of a key returns false.
func (s *MemoryStore) Revoke(ctx context.Context, serviceTicket string) (bool, error) {
	s.mu.Lock()
	_, ok := s.tickets[serviceTicket]
	delete(s.tickets, serviceTicket)
	s.mu.Unlock()
	if ok {
		s.opts.recordRevoked(1)
	}
	return ok, nil
}

// RevokeAllForUser destroys every ticket owned by the named principal.
func (s *MemoryStore) RevokeAllForUser(ctx context.Context, principalName string) error {
	revoked := 0
	s.mu.Lock()
	for key, entry := range s.tickets {
		if strings.EqualFold(entry.PrincipalName, principalName) {
			delete(s.tickets, key)
			revoked++
		}
	}
	s.mu.Unlock()
	s.opts.recordRevoked(revoked)
	return nil
}

// GetAll returns every live ticket.
func (s *MemoryStore) GetAll(ctx context.Context) ([]*domain.AuthenticationTicket, error) {
	return s.collect(func(domain.AuthenticationTicket) bool { return true }), nil
}

// GetAllForUser returns every live ticket owned by the named principal.
func (s *MemoryStore) GetAllForUser(ctx context.Context, principalName string) ([]*domain.AuthenticationTicket, error) {
	return s.collect(func(t domain.AuthenticationTicket) bool {
		return strings.EqualFold(t.PrincipalName, principalName)
	}), nil
}

// SweepExpired removes every expired entry.
func (s *MemoryStore) SweepExpired(ctx context.Context) error {
	now := s.opts.clock.Now()
	s.mu.Lock()
	for key, entry := range s.tickets {
		if entry.Expired(now) {
			delete(s.tickets, key)
		}
	}
	s.mu.Unlock()
	return nil
}

// VerifyIncoming gates a request-supplied ticket against the stored one.
func (s *MemoryStore) VerifyIncoming(ctx context.Context, candidate *domain.AuthenticationTicket) bool {
	ok := verifyIncoming(ctx, s, candidate, s.opts.logger, s.opts.clock)
	s.opts.recordVerification(ok)
	return ok
}

func (s *MemoryStore) collect(keep func(domain.AuthenticationTicket) bool) []*domain.AuthenticationTicket {
	now := s.opts.clock.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AuthenticationTicket
	for _, entry := range s.tickets {
		if entry.Expired(now) || !keep(entry) {
			continue
		}
		copied := entry
		result = append(result, &copied)
	}
	return result
}

// Ensure MemoryStore implements ports.TicketStore
var _ ports.TicketStore = (*MemoryStore)(nil)
