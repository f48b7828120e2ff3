package fulfillment

import (
	"context"

	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/store"
)

// TransactionScope provides transactional access to the fulfillment
// repositories. When a function is executed within a transaction scope, all
// repository operations are part of the same database transaction and
// commit or roll back atomically.
//
// Checkout, requirement approval, and delivery settlement all mutate more
// than one aggregate (orders plus inventory plus proxy orders) and must go
// through a scope rather than the bare repositories.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the fulfillment repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() order.Repository
	// ProxyRepo returns the proxy order repository scoped to the current transaction
	ProxyRepo() proxy.Repository
	// InventoryRepo returns the inventory repository scoped to the current transaction
	InventoryRepo() inventory.Repository
	// StoreRepo returns the store repository scoped to the current transaction
	StoreRepo() store.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing.
type NoOpTransactionScope struct {
	orderRepo     order.Repository
	proxyRepo     proxy.Repository
	inventoryRepo inventory.Repository
	storeRepo     store.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo order.Repository,
	proxyRepo proxy.Repository,
	inventoryRepo inventory.Repository,
	storeRepo store.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:     orderRepo,
		proxyRepo:     proxyRepo,
		inventoryRepo: inventoryRepo,
		storeRepo:     storeRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

// ProxyRepo returns the proxy order repository.
func (s *NoOpTransactionScope) ProxyRepo() proxy.Repository {
	return s.proxyRepo
}

// InventoryRepo returns the inventory repository.
func (s *NoOpTransactionScope) InventoryRepo() inventory.Repository {
	return s.inventoryRepo
}

// StoreRepo returns the store repository.
func (s *NoOpTransactionScope) StoreRepo() store.Repository {
	return s.storeRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
