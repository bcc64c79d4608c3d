package ticketstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// LevelDBStore is a key/value TicketStore for single-node deployments that
// need tickets to survive a restart. Records are JSON keyed by the service
// ticket; a mutex serializes read-modify-write sequences since LevelDB has
// no conditional writes.
type LevelDBStore struct {
	opts storeOptions

	mu sync.Mutex
	db *leveldb.DB
}

// NewLevelDBStore opens (or creates) the database at path.
func NewLevelDBStore(path string, options *opt.Options, opts ...StoreOption) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, options)
	if err != nil {
		return nil, fmt.Errorf("open ticket database: %w", err)
	}
	return &LevelDBStore{
		opts: newStoreOptions(opts),
		db:   db,
	}, nil
}

// Close releases the underlying database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

// Insert stores a ticket under its service ticket key.
func (s *LevelDBStore) Insert(ctx context.Context, ticket *domain.AuthenticationTicket) error {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Put([]byte(ticket.ServiceTicket), payload, nil); err != nil {
		return fmt.Errorf("store ticket: %w", err)
	}
	s.opts.recordStored()
	return nil
}

// Get retrieves a live ticket. Expired entries are removed on the spot.
func (s *LevelDBStore) Get(ctx context.Context, serviceTicket string) (*domain.AuthenticationTicket, bool, error) {
	payload, err := s.db.Get([]byte(serviceTicket), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load ticket: %w", err)
	}

	var ticket domain.AuthenticationTicket
	if err := json.Unmarshal(payload, &ticket); err != nil {
		return nil, false, fmt.Errorf("decode ticket: %w", err)
	}
	if ticket.Expired(s.opts.clock.Now()) {
		s.mu.Lock()
		_ = s.db.Delete([]byte(serviceTicket), nil)
		s.mu.Unlock()
		return nil, false, nil
	}
	return &ticket, true, nil
}

// Contains reports whether a live ticket exists for the key.
func (s *LevelDBStore) Contains(ctx context.Context, serviceTicket string) (bool, error) {
	_, ok, err := s.Get(ctx, serviceTicket)
	return ok, err
}

// Revoke destroys the ticket.
func (s *LevelDBStore) Revoke(ctx context.Context, serviceTicket string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.db.Has([]byte(serviceTicket), nil)
	if err != nil {
		return false, fmt.Errorf("check ticket: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := s.db.Delete([]byte(serviceTicket), nil); err != nil {
		return false, fmt.Errorf("revoke ticket: %w", err)
	}
	s.opts.recordRevoked(1)
	return true, nil
}

// RevokeAllForUser destroys every ticket owned by the named principal.
func (s *LevelDBStore) RevokeAllForUser(ctx context.Context, principalName string) error {
	tickets, err := s.GetAllForUser(ctx, principalName)
	if err != nil {
		return err
	}
	for _, ticket := range tickets {
		if _, err := s.Revoke(ctx, ticket.ServiceTicket); err != nil {
			return err
		}
	}
	return nil
}

// GetAll returns every live ticket.
func (s *LevelDBStore) GetAll(ctx context.Context) ([]*domain.AuthenticationTicket, error) {
	return s.iterate(func(*domain.AuthenticationTicket) bool { return true })
}

// GetAllForUser returns every live ticket owned by the named principal.
func (s *LevelDBStore) GetAllForUser(ctx context.Context, principalName string) ([]*domain.AuthenticationTicket, error) {
	return s.iterate(func(t *domain.AuthenticationTicket) bool {
		return strings.EqualFold(t.PrincipalName, principalName)
	})
}

// SweepExpired removes every expired entry.
func (s *LevelDBStore) SweepExpired(ctx context.Context) error {
	now := s.opts.clock.Now()
	var expired [][]byte

	iter := s.db.NewIterator(nil, nil)
	for iter.Next() {
		var ticket domain.AuthenticationTicket
		if err := json.Unmarshal(iter.Value(), &ticket); err != nil {
			continue // unreadable record, leave it for inspection
		}
		if ticket.Expired(now) {
			key := make([]byte, len(iter.Key()))
			copy(key, iter.Key())
			expired = append(expired, key)
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("sweep tickets: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range expired {
		if err := s.db.Delete(key, nil); err != nil {
			return fmt.Errorf("sweep tickets: %w", err)
		}
	}
	return nil
}

// VerifyIncoming gates a request-supplied ticket against the stored one.
func (s *LevelDBStore) VerifyIncoming(ctx context.Context, candidate *domain.AuthenticationTicket) bool {
	ok := verifyIncoming(ctx, s, candidate, s.opts.logger, s.opts.clock)
	s.opts.recordVerification(ok)
	return ok
}

func (s *LevelDBStore) iterate(keep func(*domain.AuthenticationTicket) bool) ([]*domain.AuthenticationTicket, error) {
	now := s.opts.clock.Now()
	var result []*domain.AuthenticationTicket

	iter := s.db.NewIterator(nil, nil)
	for iter.Next() {
		var ticket domain.AuthenticationTicket
		if err := json.Unmarshal(iter.Value(), &ticket); err != nil {
			iter.Release()
			return nil, fmt.Errorf("decode ticket: %w", err)
		}
		if ticket.Expired(now) || !keep(&ticket) {
			continue
		}
		copied := ticket
		result = append(result, &copied)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return result, nil
}

// Ensure LevelDBStore implements ports.TicketStore
var _ ports.TicketStore = (*LevelDBStore)(nil)
