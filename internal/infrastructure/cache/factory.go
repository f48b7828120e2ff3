package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/infrastructure/config"
)

// SourcingHistoryStoreFactory creates sourcing history stores based on
// configuration
type SourcingHistoryStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SourcingHistoryStoreFactoryOption is a functional option for configuring
// the factory
type SourcingHistoryStoreFactoryOption func(*SourcingHistoryStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SourcingHistoryStoreFactoryOption {
	return func(f *SourcingHistoryStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SourcingHistoryStoreFactoryOption {
	return func(f *SourcingHistoryStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSourcingHistoryStoreFactory creates a new factory
func NewSourcingHistoryStoreFactory(cfg config.RedisConfig, opts ...SourcingHistoryStoreFactoryOption) *SourcingHistoryStoreFactory {
	f := &SourcingHistoryStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore creates a sourcing history store. It tries Redis first and
// falls back to an in-memory store when Redis is unavailable and fallback is
// allowed. In-memory entries are not shared across instances, which costs
// extra sourcing queries in distributed deployments but never wrong results.
func (f *SourcingHistoryStoreFactory) CreateStore() (SourcingHistoryStore, error) {
	store, err := NewRedisSourcingHistoryStore(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis sourcing history store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for sourcing history but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory sourcing history store",
		zap.Error(err),
	)
	return NewInMemorySourcingHistoryStore(), nil
}
