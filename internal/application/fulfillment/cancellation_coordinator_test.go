package fulfillment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/proxy"
)

func TestCoordinatorCancelsCustomerOrder(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	created, err := f.proxies.RequestApproval(context.Background(), f.retailerActor(), o.ID)
	require.NoError(t, err)
	cancelled, err := f.proxies.Cancel(context.Background(), f.wholesalerActor(), created[0].ID, "cannot source")
	require.NoError(t, err)

	scope := NewNoOpTransactionScope(f.orderRepo, f.proxyRepo, f.invRepo, f.storeRepo)
	coordinator := NewCancellationCoordinator(scope, zap.NewNop())

	stored, err := f.proxyRepo.FindByID(context.Background(), cancelled.ID)
	require.NoError(t, err)
	event := proxy.NewProxyOrderCancelledEvent(stored)
	require.NoError(t, coordinator.Handle(context.Background(), event))

	updated, err := f.orderRepo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updated.Status)
	assert.Contains(t, updated.CancelReason, "cannot source")
}

func TestCoordinatorCancelsOnRejection(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	created, err := f.proxies.RequestApproval(context.Background(), f.retailerActor(), o.ID)
	require.NoError(t, err)
	_, err = f.proxies.Reject(context.Background(), f.wholesalerActor(), created[0].ID, "out of season")
	require.NoError(t, err)

	scope := NewNoOpTransactionScope(f.orderRepo, f.proxyRepo, f.invRepo, f.storeRepo)
	coordinator := NewCancellationCoordinator(scope, zap.NewNop())

	stored, err := f.proxyRepo.FindByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	require.NoError(t, coordinator.Handle(context.Background(), proxy.NewProxyOrderRejectedEvent(stored)))

	updated, err := f.orderRepo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updated.Status)
	assert.Contains(t, updated.CancelReason, "out of season")
}

func TestCoordinatorIdempotentOnTerminalOrder(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)
	require.NoError(t, o.Cancel("already cancelled"))

	scope := NewNoOpTransactionScope(f.orderRepo, f.proxyRepo, f.invRepo, f.storeRepo)
	coordinator := NewCancellationCoordinator(scope, zap.NewNop())

	p, err := proxy.NewPendingProxyOrder(f.retailer.ID, f.wholesaler.ID, wrec.ProductID, wrec.ProductName, wrec.ID, 5, wrec.GetUnitPriceMoney(), o.ID)
	require.NoError(t, err)
	require.NoError(t, p.Cancel("late cancel"))

	assert.NoError(t, coordinator.Handle(context.Background(), proxy.NewProxyOrderCancelledEvent(p)))
}
