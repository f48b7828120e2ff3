package fulfillment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainfulfillment "github.com/openmarket/backend/internal/domain/fulfillment"
	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
	"github.com/openmarket/backend/internal/domain/store"
)

type fixture struct {
	invRepo   *fakeInventoryRepo
	storeRepo *fakeStoreRepo
	orderRepo *fakeOrderRepo
	proxyRepo *fakeProxyRepo
	gateway   *fakeGateway

	approval *ApprovalService
	proxies  *ProxyOrderService
	status   *OrderStatusService

	customerID uuid.UUID
	retailer   *store.Store
	wholesaler *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		invRepo:    newFakeInventoryRepo(),
		storeRepo:  newFakeStoreRepo(),
		orderRepo:  newFakeOrderRepo(),
		proxyRepo:  newFakeProxyRepo(),
		gateway:    &fakeGateway{},
		customerID: uuid.New(),
	}

	var err error
	f.retailer, err = store.NewStore("Corner Shop", store.StoreTypeRetailer, uuid.New())
	require.NoError(t, err)
	f.wholesaler, err = store.NewStore("Bulk Goods Co", store.StoreTypeWholesaler, uuid.New())
	require.NoError(t, err)
	f.storeRepo.add(f.retailer)
	f.storeRepo.add(f.wholesaler)

	scope := NewNoOpTransactionScope(f.orderRepo, f.proxyRepo, f.invRepo, f.storeRepo)
	logger := zap.NewNop()
	f.approval = NewApprovalService(scope, f.gateway, logger)
	f.proxies = NewProxyOrderService(scope, f.gateway, logger)
	f.status = NewOrderStatusService(scope, domainfulfillment.NewStatusGuard(), logger)
	return f
}

func (f *fixture) retailerActor() Actor {
	return Actor{UserID: f.retailer.OwnerID, StoreID: f.retailer.ID, Role: RoleRetailer}
}

func (f *fixture) wholesalerActor() Actor {
	return Actor{UserID: f.wholesaler.OwnerID, StoreID: f.wholesaler.ID, Role: RoleWholesaler}
}

func (f *fixture) wholesalerListing(t *testing.T, name string, stock int) *inventory.InventoryRecord {
	t.Helper()
	r, err := inventory.NewInventoryRecord(f.wholesaler.ID, uuid.New(), name,
		valueobject.NewMoneyUSDFromFloat(6.00), valueobject.NewMoneyUSDFromFloat(7.50), stock, 4)
	require.NoError(t, err)
	f.invRepo.add(r, true)
	return r
}

// orderWithRequirement persists a customer order carrying one in-stock line
// and one requirement sourced from the fixture wholesaler
func (f *fixture) orderWithRequirement(t *testing.T, wrec *inventory.InventoryRecord, reqQty int) *order.Order {
	t.Helper()
	o, err := order.NewOrder("ORD-TEST-1", f.customerID, f.retailer.ID)
	require.NoError(t, err)
	_, err = o.AddLine(uuid.New(), uuid.New(), "Sea Salt 500g", "", 2, valueobject.NewMoneyUSDFromFloat(3.00), false)
	require.NoError(t, err)
	_, err = o.AddRequirement(wrec.ProductID, wrec.ProductName, reqQty, f.wholesaler.ID, wrec.ID, wrec.GetUnitPriceMoney(), wrec.LeadTimeDays, 2)
	require.NoError(t, err)
	o.ClearDomainEvents()
	require.NoError(t, f.orderRepo.Save(context.Background(), o))
	return o
}
