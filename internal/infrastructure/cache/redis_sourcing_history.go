package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openmarket/backend/internal/infrastructure/config"
)

const sourcingKeyPrefix = "sourcing:last-wholesaler:"

// RedisSourcingHistoryStore implements SourcingHistoryStore using Redis.
// This is suitable for distributed deployments where multiple instances
// should share sourcing history.
type RedisSourcingHistoryStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSourcingHistoryStore creates a Redis-backed sourcing history store
// and verifies the connection.
func NewRedisSourcingHistoryStore(cfg config.RedisConfig) (*RedisSourcingHistoryStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSourcingHistoryStore{
		client:    client,
		keyPrefix: sourcingKeyPrefix,
	}, nil
}

// NewRedisSourcingHistoryStoreWithClient creates a store with an existing
// Redis client. This is useful when sharing a client across components.
func NewRedisSourcingHistoryStoreWithClient(client *redis.Client, keyPrefix string) *RedisSourcingHistoryStore {
	if keyPrefix == "" {
		keyPrefix = sourcingKeyPrefix
	}
	return &RedisSourcingHistoryStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached wholesaler for a retailer/product pair
func (s *RedisSourcingHistoryStore) Get(ctx context.Context, retailerStoreID, productID uuid.UUID) (uuid.UUID, bool, error) {
	key := sourcingKey(s.keyPrefix, retailerStoreID, productID)

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to read sourcing history: %w", err)
	}

	wholesalerStoreID, err := uuid.Parse(val)
	if err != nil {
		// corrupt entry: drop it and report a miss
		_ = s.client.Del(ctx, key).Err()
		return uuid.Nil, false, nil
	}

	return wholesalerStoreID, true, nil
}

// Set records the wholesaler that last delivered the product
func (s *RedisSourcingHistoryStore) Set(ctx context.Context, retailerStoreID, productID, wholesalerStoreID uuid.UUID, ttl time.Duration) error {
	key := sourcingKey(s.keyPrefix, retailerStoreID, productID)

	if err := s.client.Set(ctx, key, wholesalerStoreID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to write sourcing history: %w", err)
	}
	return nil
}

// Invalidate drops the entry for a retailer/product pair
func (s *RedisSourcingHistoryStore) Invalidate(ctx context.Context, retailerStoreID, productID uuid.UUID) error {
	key := sourcingKey(s.keyPrefix, retailerStoreID, productID)

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate sourcing history: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisSourcingHistoryStore) Close() error {
	return s.client.Close()
}

var _ SourcingHistoryStore = (*RedisSourcingHistoryStore)(nil)
