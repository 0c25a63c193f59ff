package cache

import (
	"fmt"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StoreFactory creates Redis-backed stores, falling back to process memory
// when Redis is disabled or unreachable
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
	clientErr             error
	connected             bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when
// Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// redisClient connects once and remembers the outcome
func (f *StoreFactory) redisClient() (*redis.Client, error) {
	if f.connected {
		return f.client, f.clientErr
	}
	f.connected = true
	if !f.redisConfig.Enabled {
		f.clientErr = fmt.Errorf("redis is disabled")
		return nil, f.clientErr
	}
	f.client, f.clientErr = NewRedisClient(f.redisConfig)
	return f.client, f.clientErr
}

// CreateIdempotencyStore returns a Redis idempotency store, or an in-memory
// one when Redis is unavailable and fallback is allowed
func (f *StoreFactory) CreateIdempotencyStore() (shared.IdempotencyStore, error) {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, DefaultIdempotencyPrefix), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
		"Duplicate submissions are only detected within this instance.",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(0), nil
}

// CreateDraftStore returns a Redis draft store, or an in-memory one when
// Redis is unavailable and fallback is allowed
func (f *StoreFactory) CreateDraftStore(cfg config.DraftsConfig) (byom.DraftRepository, error) {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("using Redis draft store", zap.Duration("ttl", cfg.TTL))
		return NewRedisDraftStore(client, cfg.TTL), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for drafts but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, drafts are kept in memory and lost on restart", zap.Error(err))
	return NewInMemoryDraftStore(), nil
}

// Close closes the shared Redis client, if one was opened
func (f *StoreFactory) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
