package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/application/fulfillment"
	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
	"github.com/openmarket/backend/internal/domain/store"
)

type fixture struct {
	svc       *Service
	invRepo   *fakeInventoryRepo
	storeRepo *fakeStoreRepo
	orderRepo *fakeOrderRepo
	proxyRepo *fakeProxyRepo
	gateway   *fakeGateway

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

	scope := fulfillment.NewNoOpTransactionScope(f.orderRepo, f.proxyRepo, f.invRepo, f.storeRepo)
	f.svc = NewService(scope, f.gateway, zap.NewNop())
	return f
}

func (f *fixture) listing(t *testing.T, st *store.Store, name string, stock int) *inventory.InventoryRecord {
	t.Helper()
	r, err := inventory.NewInventoryRecord(st.ID, uuid.New(), name,
		valueobject.NewMoneyUSDFromFloat(8.00), valueobject.NewMoneyUSDFromFloat(10.00), stock, 2)
	require.NoError(t, err)
	f.invRepo.add(r, st.IsWholesaler())
	return r
}

func (f *fixture) actor() fulfillment.Actor {
	return fulfillment.Actor{UserID: f.customerID, Role: fulfillment.RoleCustomer}
}

func TestPlaceOrderFullyInStock(t *testing.T) {
	f := newFixture(t)
	rec := f.listing(t, f.retailer, "Olive Oil 1L", 10)

	resp, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines: []CartLineRequest{{InventoryRecordID: rec.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)

	o := resp.Orders[0]
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 4, o.Lines[0].Quantity)
	assert.False(t, o.Lines[0].SourcedViaProxy)
	assert.False(t, o.NeedsProxyApproval)
	assert.Empty(t, o.Requirements)

	stored, err := f.invRepo.FindByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.StockQty)
}

func TestPlaceOrderWithShortfall(t *testing.T) {
	f := newFixture(t)
	rec := f.listing(t, f.retailer, "Olive Oil 1L", 3)
	wrec := f.listing(t, f.wholesaler, "Olive Oil 1L", 50)

	resp, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines: []CartLineRequest{{InventoryRecordID: rec.ID, Quantity: 8}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)

	o := resp.Orders[0]
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 3, o.Lines[0].Quantity)
	require.Len(t, o.Requirements, 1)
	assert.Equal(t, 5, o.Requirements[0].Quantity)
	assert.Equal(t, wrec.ID, o.Requirements[0].WholesalerInventoryID)
	assert.Equal(t, f.wholesaler.ID, o.Requirements[0].WholesalerStoreID)
	assert.True(t, o.NeedsProxyApproval)

	// line + requirement together conserve the cart quantity
	assert.Equal(t, 8, o.Lines[0].Quantity+o.Requirements[0].Quantity)

	// wholesaler stock untouched until delivery settlement
	stored, err := f.invRepo.FindByID(context.Background(), wrec.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.StockQty)
}

func TestPlaceOrderShortfallNoWholesaler(t *testing.T) {
	f := newFixture(t)
	rec := f.listing(t, f.retailer, "Olive Oil 1L", 3)

	_, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines: []CartLineRequest{{InventoryRecordID: rec.ID, Quantity: 8}},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))
}

func TestPlaceOrderShortfallAllowPartial(t *testing.T) {
	f := newFixture(t)
	rec := f.listing(t, f.retailer, "Olive Oil 1L", 3)

	resp, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines:        []CartLineRequest{{InventoryRecordID: rec.ID, Quantity: 8}},
		AllowPartial: true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, 3, resp.Orders[0].Lines[0].Quantity)
	assert.Empty(t, resp.Orders[0].Requirements)
}

func TestPlaceOrderSplitsPerRetailerStore(t *testing.T) {
	f := newFixture(t)
	second, err := store.NewStore("Second Shop", store.StoreTypeRetailer, uuid.New())
	require.NoError(t, err)
	f.storeRepo.add(second)

	recA := f.listing(t, f.retailer, "Olive Oil 1L", 10)
	recB := f.listing(t, second, "Sea Salt 500g", 10)

	resp, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines: []CartLineRequest{
			{InventoryRecordID: recA.ID, Quantity: 2},
			{InventoryRecordID: recB.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)
}

func TestPlaceOrderPrefersHistoricWholesaler(t *testing.T) {
	f := newFixture(t)
	rec := f.listing(t, f.retailer, "Olive Oil 1L", 0)
	historic := f.listing(t, f.wholesaler, "Olive Oil 1L", 10)

	bigger, err := store.NewStore("Mega Bulk", store.StoreTypeWholesaler, uuid.New())
	require.NoError(t, err)
	f.storeRepo.add(bigger)
	f.listing(t, bigger, "Olive Oil 1L", 500)

	f.proxyRepo.setHistory(f.retailer.ID, rec.ProductID, f.wholesaler.ID)
	// history candidate must carry the same product reference
	historic.ProductID = rec.ProductID
	require.NoError(t, f.invRepo.Save(context.Background(), historic))

	resp, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines: []CartLineRequest{{InventoryRecordID: rec.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Orders[0].Requirements, 1)
	assert.Equal(t, f.wholesaler.ID, resp.Orders[0].Requirements[0].WholesalerStoreID)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{})
	require.Error(t, err)
}

func TestPlaceOrderUnknownRecord(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines: []CartLineRequest{{InventoryRecordID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestPlaceOrderRejectsWholesalerSeller(t *testing.T) {
	f := newFixture(t)
	wrec := f.listing(t, f.wholesaler, "Olive Oil 1L", 10)

	_, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines: []CartLineRequest{{InventoryRecordID: wrec.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
}

func TestPlaceOrderLostReservationRace(t *testing.T) {
	f := newFixture(t)
	rec := f.listing(t, f.retailer, "Olive Oil 1L", 10)
	f.listing(t, f.wholesaler, "Olive Oil 1L", 50)

	// a competing checkout empties the record between read and decrement;
	// the retry re-reads zero stock and sources the whole quantity
	f.invRepo.stealDecrements = 1

	resp, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines: []CartLineRequest{{InventoryRecordID: rec.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	o := resp.Orders[0]
	assert.Empty(t, o.Lines)
	require.Len(t, o.Requirements, 1)
	assert.Equal(t, 4, o.Requirements[0].Quantity)
}

func TestPlaceOrderChargesImmediateOrders(t *testing.T) {
	f := newFixture(t)
	rec := f.listing(t, f.retailer, "Olive Oil 1L", 10)

	resp, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines:         []CartLineRequest{{InventoryRecordID: rec.ID, Quantity: 2}},
		PaymentMethod: "CARD",
	})
	require.NoError(t, err)
	assert.Equal(t, "PAID", string(resp.Orders[0].PaymentStatus))
	require.Len(t, f.gateway.charges, 1)
	assert.True(t, f.gateway.charges[0].Amount.Equal(rec.UnitPrice.Mul(decimal.NewFromInt(2))))
}

func TestPlaceOrderDeclinedPayment(t *testing.T) {
	f := newFixture(t)
	rec := f.listing(t, f.retailer, "Olive Oil 1L", 10)
	f.gateway.decline = true

	_, err := f.svc.PlaceOrder(context.Background(), f.actor(), PlaceOrderRequest{
		Lines:         []CartLineRequest{{InventoryRecordID: rec.ID, Quantity: 2}},
		PaymentMethod: "CARD",
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeExternalFailure))
}
