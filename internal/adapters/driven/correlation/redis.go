package correlation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// RedisStore is a distributed CorrelationStore. Both directions of the
// mapping are applied in one Lua script so an interleaved logout
// notification can never observe a dangling half of an entry.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore creates a correlation store on an existing redis client.
// Keys are namespaced "<namespace>:slo:server:<serverKey>" and
// "<namespace>:slo:client:<clientKey>".
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "cas"
	}
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) serverKey(k string) string { return s.namespace + ":slo:server:" + k }
func (s *RedisStore) clientKey(k string) string { return s.namespace + ":slo:client:" + k }

// storeScript evicts any entry already using the client key or the server
// key, then writes both directions of the new mapping.
// KEYS[1]=server entry, KEYS[2]=client entry; ARGV[1]=payload,
// ARGV[2]=server key, ARGV[3]=key prefix for reverse lookups.
var storeScript = redis.NewScript(`
local oldServer = redis.call("GET", KEYS[2])
if oldServer and oldServer ~= ARGV[2] then
  redis.call("DEL", ARGV[3] .. ":slo:server:" .. oldServer)
end
local oldEntry = redis.call("GET", KEYS[1])
if oldEntry then
  local old = cjson.decode(oldEntry)
  if old.ClientKey then
    redis.call("DEL", ARGV[3] .. ":slo:client:" .. old.ClientKey)
  end
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], ARGV[2])
return 1
`)

// takeScript reads and removes both directions of an entry by server key.
var takeScript = redis.NewScript(`
local entry = redis.call("GET", KEYS[1])
if not entry then
  return false
end
local decoded = cjson.decode(entry)
if decoded.ClientKey then
  redis.call("DEL", ARGV[1] .. ":slo:client:" .. decoded.ClientKey)
end
redis.call("DEL", KEYS[1])
return entry
`)

// removeScript removes both directions of an entry by client key.
var removeScript = redis.NewScript(`
local serverKey = redis.call("GET", KEYS[1])
if serverKey then
  redis.call("DEL", ARGV[1] .. ":slo:server:" .. serverKey)
end
redis.call("DEL", KEYS[1])
return 1
`)

// StoreState records the triple, evicting stale mappings for either key.
func (s *RedisStore) StoreState(ctx context.Context, mapping domain.SessionMapping) error {
	payload, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal correlation entry: %w", err)
	}
	err = storeScript.Run(ctx, s.client,
		[]string{s.serverKey(mapping.ServerKey), s.clientKey(mapping.ClientKey)},
		payload, mapping.ServerKey, s.namespace).Err()
	if err != nil {
		return fmt.Errorf("store correlation entry: %w", err)
	}
	return nil
}

// TakeByServerKey looks up and removes the entry for a server key.
func (s *RedisStore) TakeByServerKey(ctx context.Context, serverKey string) (domain.SessionMapping, bool, error) {
	result, err := takeScript.Run(ctx, s.client,
		[]string{s.serverKey(serverKey)}, s.namespace).Result()
	if err == redis.Nil {
		return domain.SessionMapping{}, false, nil
	}
	if err != nil {
		return domain.SessionMapping{}, false, fmt.Errorf("take correlation entry: %w", err)
	}

	payload, ok := result.(string)
	if !ok {
		return domain.SessionMapping{}, false, nil
	}
	var mapping domain.SessionMapping
	if err := json.Unmarshal([]byte(payload), &mapping); err != nil {
		return domain.SessionMapping{}, false, fmt.Errorf("decode correlation entry: %w", err)
	}
	return mapping, true, nil
}

// RemoveState drops the entry for a client key, if any.
func (s *RedisStore) RemoveState(ctx context.Context, clientKey string) error {
	err := removeScript.Run(ctx, s.client,
		[]string{s.clientKey(clientKey)}, s.namespace).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("remove correlation entry: %w", err)
	}
	return nil
}

// Ensure RedisStore implements ports.CorrelationStore
var _ ports.CorrelationStore = (*RedisStore)(nil)
