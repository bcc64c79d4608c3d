// Package correlation provides SessionCorrelationStore backends mapping the
// server-issued single-logout key to the locally held session key.
package correlation

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// MemoryStore is the in-process reference CorrelationStore: two maps under
// one mutex so the evict-then-insert sequence in StoreState can never
// interleave with a concurrent logout notification.
type MemoryStore struct {
	logger *zap.Logger

	mu       sync.Mutex
	byServer map[string]domain.SessionMapping
	byClient map[string]string // clientKey -> serverKey
}

// NewMemoryStore creates an empty in-memory correlation store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger:   logger,
		byServer: map[string]domain.SessionMapping{},
		byClient: map[string]string{},
	}
}

// StoreState records the triple, evicting any stale mapping that already
// uses either key.
func (s *MemoryStore) StoreState(ctx context.Context, mapping domain.SessionMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A reused local session must not leave its old server key behind.
	if oldServer, ok := s.byClient[mapping.ClientKey]; ok && oldServer != mapping.ServerKey {
		delete(s.byServer, oldServer)
		if s.logger != nil {
			s.logger.Debug("evicted stale logout correlation",
				zap.String("server_key", oldServer),
				zap.String("client_key", mapping.ClientKey))
		}
	}
	if old, ok := s.byServer[mapping.ServerKey]; ok && old.ClientKey != mapping.ClientKey {
		delete(s.byClient, old.ClientKey)
	}

	s.byServer[mapping.ServerKey] = mapping
	s.byClient[mapping.ClientKey] = mapping.ServerKey
	return nil
}

// TakeByServerKey looks up and removes the entry for a server key.
func (s *MemoryStore) TakeByServerKey(ctx context.Context, serverKey string) (domain.SessionMapping, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping, ok := s.byServer[serverKey]
	if !ok {
		return domain.SessionMapping{}, false, nil
	}
	delete(s.byServer, serverKey)
	delete(s.byClient, mapping.ClientKey)
	return mapping, true, nil
}

// RemoveState drops the entry for a client key, if any.
func (s *MemoryStore) RemoveState(ctx context.Context, clientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	serverKey, ok := s.byClient[clientKey]
	if !ok {
		return nil
	}
	delete(s.byClient, clientKey)
	delete(s.byServer, serverKey)
	return nil
}

// Ensure MemoryStore implements ports.CorrelationStore
var _ ports.CorrelationStore = (*MemoryStore)(nil)
