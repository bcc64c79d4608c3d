package ticketstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// RedisStore is a distributed TicketStore backed by redis. Entries expire
// natively via TTL, so SweepExpired is a no-op. User-scoped queries walk
// the namespace with SCAN; revocation lists are admin-path, not hot-path.
type RedisStore struct {
	opts      storeOptions
	client    *redis.Client
	namespace string
}

// NewRedisStore creates a ticket store on an existing redis client.
// Keys are namespaced "<namespace>:ticket:<serviceTicket>".
func NewRedisStore(client *redis.Client, namespace string, opts ...StoreOption) *RedisStore {
	if namespace == "" {
		namespace = "cas"
	}
	return &RedisStore{
		opts:      newStoreOptions(opts),
		client:    client,
		namespace: namespace,
	}
}

func (s *RedisStore) key(serviceTicket string) string {
	return s.namespace + ":ticket:" + serviceTicket
}

// Insert stores a ticket with a TTL matching its validity window.
func (s *RedisStore) Insert(ctx context.Context, ticket *domain.AuthenticationTicket) error {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	ttl := time.Until(ticket.ValidUntil)
	if ttl <= 0 {
		// Already past its window; storing it would create a live entry
		// with no expiry.
		return nil
	}
	if err := s.client.Set(ctx, s.key(ticket.ServiceTicket), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store ticket: %w", err)
	}
	s.opts.recordStored()
	return nil
}

// Get retrieves a live ticket.
func (s *RedisStore) Get(ctx context.Context, serviceTicket string) (*domain.AuthenticationTicket, bool, error) {
	payload, err := s.client.Get(ctx, s.key(serviceTicket)).Bytes()
	if errors.Is(err, redis.Nil) {
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
		return nil, false, nil
	}
	return &ticket, true, nil
}

// Contains reports whether a live ticket exists for the key.
func (s *RedisStore) Contains(ctx context.Context, serviceTicket string) (bool, error) {
	count, err := s.client.Exists(ctx, s.key(serviceTicket)).Result()
	if err != nil {
		return false, fmt.Errorf("check ticket: %w", err)
	}
	return count > 0, nil
}

// Revoke destroys the ticket.
func (s *RedisStore) Revoke(ctx context.Context, serviceTicket string) (bool, error) {
	removed, err := s.client.Del(ctx, s.key(serviceTicket)).Result()
	if err != nil {
		return false, fmt.Errorf("revoke ticket: %w", err)
	}
	if removed > 0 {
		s.opts.recordRevoked(int(removed))
	}
	return removed > 0, nil
}

// RevokeAllForUser destroys every ticket owned by the named principal.
func (s *RedisStore) RevokeAllForUser(ctx context.Context, principalName string) error {
	tickets, err := s.GetAllForUser(ctx, principalName)
	if err != nil {
		return err
	}
	revoked := 0
	for _, ticket := range tickets {
		ok, err := s.Revoke(ctx, ticket.ServiceTicket)
		if err != nil {
			return err
		}
		if ok {
			revoked++
		}
	}
	return nil
}

// GetAll returns every live ticket in the namespace.
func (s *RedisStore) GetAll(ctx context.Context) ([]*domain.AuthenticationTicket, error) {
	return s.scan(ctx, func(*domain.AuthenticationTicket) bool { return true })
}

// GetAllForUser returns every live ticket owned by the named principal.
func (s *RedisStore) GetAllForUser(ctx context.Context, principalName string) ([]*domain.AuthenticationTicket, error) {
	return s.scan(ctx, func(t *domain.AuthenticationTicket) bool {
		return strings.EqualFold(t.PrincipalName, principalName)
	})
}

// SweepExpired is a no-op; redis expires entries natively.
func (s *RedisStore) SweepExpired(ctx context.Context) error {
	return nil
}

// VerifyIncoming gates a request-supplied ticket against the stored one.
func (s *RedisStore) VerifyIncoming(ctx context.Context, candidate *domain.AuthenticationTicket) bool {
	ok := verifyIncoming(ctx, s, candidate, s.opts.logger, s.opts.clock)
	s.opts.recordVerification(ok)
	return ok
}

func (s *RedisStore) scan(ctx context.Context, keep func(*domain.AuthenticationTicket) bool) ([]*domain.AuthenticationTicket, error) {
	var result []*domain.AuthenticationTicket
	iter := s.client.Scan(ctx, 0, s.namespace+":ticket:*", 100).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, fmt.Errorf("load ticket: %w", err)
		}
		var ticket domain.AuthenticationTicket
		if err := json.Unmarshal(payload, &ticket); err != nil {
			return nil, fmt.Errorf("decode ticket: %w", err)
		}
		if ticket.Expired(s.opts.clock.Now()) || !keep(&ticket) {
			continue
		}
		copied := ticket
		result = append(result, &copied)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan tickets: %w", err)
	}
	return result, nil
}

// Ensure RedisStore implements ports.TicketStore
var _ ports.TicketStore = (*RedisStore)(nil)
