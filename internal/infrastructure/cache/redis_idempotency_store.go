package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/merch/byom/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyPrefix namespaces idempotency keys in Redis
const DefaultIdempotencyPrefix = "byom:idempotency:"

// RedisIdempotencyStore implements IdempotencyStore using Redis, so every
// server instance sees the same in-flight submissions
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing Redis client
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed marks key with a TTL using SETNX.
// Returns true if the key was newly marked, false if it was already present
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s: %w", key, err)
	}
	return ok, nil
}

// IsProcessed checks if key is currently marked
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return exists > 0, nil
}

// Release deletes the mark so the operation may be retried
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

// Close is a no-op: the client is shared and closed by its owner
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
