package proxygranting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// RedisRegistry is a distributed ProxyGrantingStore relying on redis TTL
// expiry, so RemoveExpiredMappings is a no-op.
type RedisRegistry struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisRegistry creates a registry on an existing redis client.
// Keys are namespaced "<namespace>:pgt:<iou>".
func NewRedisRegistry(client *redis.Client, namespace string, ttl time.Duration) *RedisRegistry {
	if namespace == "" {
		namespace = "cas"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRegistry{client: client, namespace: namespace, ttl: ttl}
}

func (r *RedisRegistry) key(iou string) string {
	return r.namespace + ":pgt:" + iou
}

// InsertMapping stores the IOU mapping with the registry TTL.
func (r *RedisRegistry) InsertMapping(ctx context.Context, iou, ticket string) error {
	if err := r.client.Set(ctx, r.key(iou), ticket, r.ttl).Err(); err != nil {
		return fmt.Errorf("store proxy-granting mapping: %w", err)
	}
	return nil
}

// GetTicket resolves an IOU.
func (r *RedisRegistry) GetTicket(ctx context.Context, iou string) (string, bool, error) {
	ticket, err := r.client.Get(ctx, r.key(iou)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load proxy-granting mapping: %w", err)
	}
	return ticket, true, nil
}

// RemoveExpiredMappings is a no-op; redis expires entries natively.
func (r *RedisRegistry) RemoveExpiredMappings(ctx context.Context) error {
	return nil
}

// Ensure RedisRegistry implements ports.ProxyGrantingStore
var _ ports.ProxyGrantingStore = (*RedisRegistry)(nil)
