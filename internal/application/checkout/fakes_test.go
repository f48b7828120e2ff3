package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/payment"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/store"
)

// In-memory repositories driving the checkout flow end to end without a
// database. Stock decrements behave like the real conditional updates:
// they fail with ErrConcurrencyConflict when stock is short.

type fakeInventoryRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*inventory.InventoryRecord
	// wholesaler store IDs, for candidate queries
	wholesalers map[uuid.UUID]bool
	// when set, the next n decrements fail as if another checkout won
	stealDecrements int
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{
		records:     make(map[uuid.UUID]*inventory.InventoryRecord),
		wholesalers: make(map[uuid.UUID]bool),
	}
}

func (f *fakeInventoryRepo) add(r *inventory.InventoryRecord, wholesaler bool) {
	f.records[r.ID] = r
	if wholesaler {
		f.wholesalers[r.StoreID] = true
	}
}

func (f *fakeInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeInventoryRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.InventoryRecord
	for _, id := range ids {
		if r, ok := f.records[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepo) FindByStoreAndProduct(_ context.Context, storeID, productID uuid.UUID) (*inventory.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.StoreID == storeID && r.ProductID == productID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeInventoryRepo) FindByStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) ([]inventory.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.InventoryRecord
	for _, r := range f.records {
		if r.StoreID == storeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepo) FindWholesalerCandidates(_ context.Context, productName string, neededQty int) ([]inventory.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := strings.ToLower(strings.TrimSpace(productName))
	var out []inventory.InventoryRecord
	for _, r := range f.records {
		if f.wholesalers[r.StoreID] && strings.ToLower(strings.TrimSpace(r.ProductName)) == name && r.StockQty >= neededQty {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockQty > out[j].StockQty })
	return out, nil
}

func (f *fakeInventoryRepo) Save(_ context.Context, r *inventory.InventoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.records[r.ID] = &cp
	return nil
}

func (f *fakeInventoryRepo) SaveWithLock(_ context.Context, r *inventory.InventoryRecord) error {
	return f.Save(context.Background(), r)
}

func (f *fakeInventoryRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	if f.stealDecrements > 0 {
		f.stealDecrements--
		r.StockQty = 0
		return shared.ErrConcurrencyConflict
	}
	if r.StockQty < qty {
		return shared.ErrConcurrencyConflict
	}
	r.StockQty -= qty
	return nil
}

func (f *fakeInventoryRepo) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	r.StockQty += qty
	return nil
}

func (f *fakeInventoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeInventoryRepo) CountByStore(_ context.Context, storeID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if r.StoreID == storeID {
			n++
		}
	}
	return n, nil
}

type fakeStoreRepo struct {
	mu     sync.Mutex
	stores map[uuid.UUID]*store.Store
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: make(map[uuid.UUID]*store.Store)}
}

func (f *fakeStoreRepo) add(s *store.Store) { f.stores[s.ID] = s }

func (f *fakeStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stores[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStoreRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Store
	for _, id := range ids {
		if s, ok := f.stores[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Store
	for _, s := range f.stores {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) FindByType(_ context.Context, storeType store.StoreType, _ shared.Filter) ([]store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Store
	for _, s := range f.stores {
		if s.Type == storeType {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) Save(_ context.Context, s *store.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.stores[s.ID] = &cp
	return nil
}

func (f *fakeStoreRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stores, id)
	return nil
}

func (f *fakeStoreRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.stores)), nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
	seq    int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrderRepo) FindByBuyer(_ context.Context, buyerID uuid.UUID, _ shared.Filter) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindBySellerStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		if o.SellerStoreID == storeID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindPendingApprovalBySellerStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		if o.SellerStoreID == storeID && o.HasPendingApproval() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) Save(_ context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) SaveWithLock(_ context.Context, o *order.Order) error {
	return f.Save(context.Background(), o)
}

func (f *fakeOrderRepo) SaveAll(_ context.Context, orders []*order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderRepo) CountByStatus(_ context.Context, storeID uuid.UUID, status order.Status) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, o := range f.orders {
		if o.SellerStoreID == storeID && o.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderRepo) GenerateOrderNumber(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("ORD-%06d", f.seq), nil
}

type fakeProxyRepo struct {
	mu      sync.Mutex
	proxies map[uuid.UUID]*proxy.ProxyOrder
	// preset fulfillment history: retailer|product -> wholesaler store
	history map[string]uuid.UUID
}

func newFakeProxyRepo() *fakeProxyRepo {
	return &fakeProxyRepo{
		proxies: make(map[uuid.UUID]*proxy.ProxyOrder),
		history: make(map[string]uuid.UUID),
	}
}

func historyKey(retailerStoreID, productID uuid.UUID) string {
	return retailerStoreID.String() + "|" + productID.String()
}

func (f *fakeProxyRepo) setHistory(retailerStoreID, productID, wholesalerStoreID uuid.UUID) {
	f.history[historyKey(retailerStoreID, productID)] = wholesalerStoreID
}

func (f *fakeProxyRepo) FindByID(_ context.Context, id uuid.UUID) (*proxy.ProxyOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proxies[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeProxyRepo) FindByCustomerOrder(_ context.Context, customerOrderID uuid.UUID) ([]proxy.ProxyOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []proxy.ProxyOrder
	for _, p := range f.proxies {
		if p.CustomerOrderID == customerOrderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProxyRepo) FindByRetailerStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) ([]proxy.ProxyOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []proxy.ProxyOrder
	for _, p := range f.proxies {
		if p.RetailerStoreID == storeID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProxyRepo) FindByWholesalerStore(_ context.Context, storeID uuid.UUID, status *proxy.Status, _ shared.Filter) ([]proxy.ProxyOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []proxy.ProxyOrder
	for _, p := range f.proxies {
		if p.WholesalerStoreID == storeID && (status == nil || p.Status == *status) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProxyRepo) LastWholesalerFor(_ context.Context, retailerStoreID, productID uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.history[historyKey(retailerStoreID, productID)]; ok {
		return id, nil
	}
	return uuid.Nil, shared.ErrNotFound
}

func (f *fakeProxyRepo) Save(_ context.Context, p *proxy.ProxyOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proxies[p.ID] = p
	return nil
}

func (f *fakeProxyRepo) SaveWithLock(_ context.Context, p *proxy.ProxyOrder) error {
	return f.Save(context.Background(), p)
}

func (f *fakeProxyRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.proxies, id)
	return nil
}

func (f *fakeProxyRepo) CountByStatus(_ context.Context, wholesalerStoreID uuid.UUID, status proxy.Status) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.proxies {
		if p.WholesalerStoreID == wholesalerStoreID && p.Status == status {
			n++
		}
	}
	return n, nil
}

// fakeGateway approves every charge unless told to decline
type fakeGateway struct {
	decline bool
	charges []payment.ChargeRequest
}

func (g *fakeGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	g.charges = append(g.charges, req)
	if g.decline {
		return &payment.ChargeResult{Succeeded: false, FailureReason: "declined"}, nil
	}
	return &payment.ChargeResult{TransactionID: uuid.NewString(), Succeeded: true}, nil
}

var (
	_ inventory.Repository = (*fakeInventoryRepo)(nil)
	_ store.Repository     = (*fakeStoreRepo)(nil)
	_ order.Repository     = (*fakeOrderRepo)(nil)
	_ proxy.Repository     = (*fakeProxyRepo)(nil)
	_ payment.Gateway      = (*fakeGateway)(nil)
)
