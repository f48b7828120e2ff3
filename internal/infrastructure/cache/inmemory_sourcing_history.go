package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type sourcingEntry struct {
	wholesalerStoreID uuid.UUID
	expiresAt         time.Time
}

// InMemorySourcingHistoryStore implements SourcingHistoryStore using an
// in-memory map. This is suitable for single-instance deployments and testing.
type InMemorySourcingHistoryStore struct {
	mu        sync.RWMutex
	entries   map[string]sourcingEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySourcingHistoryStore creates a new in-memory sourcing history
// store. It starts a background goroutine to clean up expired entries.
func NewInMemorySourcingHistoryStore() *InMemorySourcingHistoryStore {
	store := &InMemorySourcingHistoryStore{
		entries:  make(map[string]sourcingEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Get returns the cached wholesaler for a retailer/product pair
func (s *InMemorySourcingHistoryStore) Get(ctx context.Context, retailerStoreID, productID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[sourcingKey("", retailerStoreID, productID)]
	if !exists || time.Now().After(e.expiresAt) {
		return uuid.Nil, false, nil
	}

	return e.wholesalerStoreID, true, nil
}

// Set records the wholesaler that last delivered the product
func (s *InMemorySourcingHistoryStore) Set(ctx context.Context, retailerStoreID, productID, wholesalerStoreID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sourcingKey("", retailerStoreID, productID)] = sourcingEntry{
		wholesalerStoreID: wholesalerStoreID,
		expiresAt:         time.Now().Add(ttl),
	}
	return nil
}

// Invalidate drops the entry for a retailer/product pair
func (s *InMemorySourcingHistoryStore) Invalidate(ctx context.Context, retailerStoreID, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sourcingKey("", retailerStoreID, productID))
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemorySourcingHistoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemorySourcingHistoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cleanupLoop periodically removes expired entries
func (s *InMemorySourcingHistoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemorySourcingHistoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ SourcingHistoryStore = (*InMemorySourcingHistoryStore)(nil)
