package persistence

import (
	"context"

	"gorm.io/gorm"

	appfulfillment "github.com/openmarket/backend/internal/application/fulfillment"
	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/store"
)

// GormTransactionScope implements the fulfillment TransactionScope using GORM
// transactions, so an order, its proxy orders and the stock movements they
// imply commit or roll back together.
type GormTransactionScope struct {
	db             *gorm.DB
	proxyDecorator func(proxy.Repository) proxy.Repository
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// DecorateProxyRepo wraps every transaction-scoped proxy repository with the
// given decorator, e.g. the sourcing history cache
func (s *GormTransactionScope) DecorateProxyRepo(decorator func(proxy.Repository) proxy.Repository) {
	s.proxyDecorator = decorator
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfulfillment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, proxyDecorator: s.proxyDecorator})
	})
}

type gormTransactionalRepositories struct {
	tx             *gorm.DB
	proxyDecorator func(proxy.Repository) proxy.Repository
}

// OrderRepo returns the order repository scoped to the current transaction
func (r *gormTransactionalRepositories) OrderRepo() order.Repository {
	return NewGormOrderRepository(r.tx)
}

// ProxyRepo returns the proxy order repository scoped to the current transaction
func (r *gormTransactionalRepositories) ProxyRepo() proxy.Repository {
	repo := proxy.Repository(NewGormProxyOrderRepository(r.tx))
	if r.proxyDecorator != nil {
		repo = r.proxyDecorator(repo)
	}
	return repo
}

// InventoryRepo returns the inventory repository scoped to the current transaction
func (r *gormTransactionalRepositories) InventoryRepo() inventory.Repository {
	return NewGormInventoryRepository(r.tx)
}

// StoreRepo returns the store repository scoped to the current transaction
func (r *gormTransactionalRepositories) StoreRepo() store.Repository {
	return NewGormStoreRepository(r.tx)
}

var _ appfulfillment.TransactionScope = (*GormTransactionScope)(nil)
var _ appfulfillment.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
