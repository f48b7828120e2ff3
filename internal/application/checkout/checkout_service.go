package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appfulfillment "github.com/openmarket/backend/internal/application/fulfillment"
	domainfulfillment "github.com/openmarket/backend/internal/domain/fulfillment"
	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/payment"
	"github.com/openmarket/backend/internal/domain/shared"
)

// DefaultReserveRetries bounds how often a checkout retries a lost stock
// reservation race before giving up
const DefaultReserveRetries = 3

// Service places customer orders. For every cart line it splits the desired
// quantity between retailer-held stock and a sourced wholesaler substitute,
// reserving retailer stock with conditional decrements and recording each
// shortfall as a fulfillment requirement awaiting retailer approval.
type Service struct {
	txScope        appfulfillment.TransactionScope
	gateway        payment.Gateway
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	reserveRetries int
}

// NewService creates a new checkout Service
func NewService(txScope appfulfillment.TransactionScope, gateway payment.Gateway, logger *zap.Logger) *Service {
	return &Service{
		txScope:        txScope,
		gateway:        gateway,
		logger:         logger,
		reserveRetries: DefaultReserveRetries,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetReserveRetries overrides the reservation retry bound
func (s *Service) SetReserveRetries(n int) {
	if n > 0 {
		s.reserveRetries = n
	}
}

// PlaceOrder performs a whole-cart checkout. Lines spanning several
// retailer stores produce one order per store; all orders, stock
// reservations and requirements commit or roll back together.
func (s *Service) PlaceOrder(ctx context.Context, actor appfulfillment.Actor, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	desired, idOrder, err := mergeLines(req.Lines)
	if err != nil {
		return nil, err
	}

	var placed []*order.Order
	err = s.txScope.Execute(ctx, func(repos appfulfillment.TransactionalRepositories) error {
		records, err := s.loadRecords(ctx, repos, idOrder)
		if err != nil {
			return err
		}
		if err := s.checkSellers(ctx, repos, records); err != nil {
			return err
		}

		matcher := domainfulfillment.NewSourcingMatcher(repos.InventoryRepo(), repos.ProxyRepo())

		// one order per retailer store, in cart order
		orders := make(map[uuid.UUID]*order.Order)
		var sequence []*order.Order
		for _, recordID := range idOrder {
			record := records[recordID]
			o := orders[record.StoreID]
			if o == nil {
				number, err := repos.OrderRepo().GenerateOrderNumber(ctx)
				if err != nil {
					return err
				}
				o, err = order.NewOrder(number, actor.UserID, record.StoreID)
				if err != nil {
					return err
				}
				orders[record.StoreID] = o
				sequence = append(sequence, o)
			}

			if err := s.allocateLine(ctx, repos, matcher, o, record, desired[recordID], req.AllowPartial); err != nil {
				return err
			}
		}

		for _, o := range sequence {
			if o.IsEmpty() {
				continue
			}
			placed = append(placed, o)
		}
		if len(placed) == 0 {
			return shared.NewDomainError(shared.CodeValidation, "Order contains no purchasable lines")
		}

		if err := s.collectPayment(ctx, actor, req.PaymentMethod, placed); err != nil {
			return err
		}

		return repos.OrderRepo().SaveAll(ctx, placed)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, placed)

	return &PlaceOrderResponse{Orders: appfulfillment.ToOrderResponses(placed)}, nil
}

// mergeLines sums duplicate cart lines per inventory record, keeping first
// appearance order
func mergeLines(lines []CartLineRequest) (map[uuid.UUID]int, []uuid.UUID, error) {
	desired := make(map[uuid.UUID]int)
	var idOrder []uuid.UUID
	for _, line := range lines {
		if line.InventoryRecordID == uuid.Nil {
			return nil, nil, shared.NewDomainError(shared.CodeValidation, "Cart line is missing an inventory record")
		}
		if line.Quantity <= 0 {
			return nil, nil, shared.NewDomainError(shared.CodeValidation, "Cart line quantity must be positive")
		}
		if _, seen := desired[line.InventoryRecordID]; !seen {
			idOrder = append(idOrder, line.InventoryRecordID)
		}
		desired[line.InventoryRecordID] += line.Quantity
	}
	return desired, idOrder, nil
}

func (s *Service) loadRecords(ctx context.Context, repos appfulfillment.TransactionalRepositories, ids []uuid.UUID) (map[uuid.UUID]*inventory.InventoryRecord, error) {
	found, err := repos.InventoryRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	records := make(map[uuid.UUID]*inventory.InventoryRecord, len(found))
	for i := range found {
		records[found[i].ID] = &found[i]
	}
	for _, id := range ids {
		if records[id] == nil {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Inventory record not found")
		}
	}
	return records, nil
}

// checkSellers verifies every cart line sells from an active retailer store
func (s *Service) checkSellers(ctx context.Context, repos appfulfillment.TransactionalRepositories, records map[uuid.UUID]*inventory.InventoryRecord) error {
	storeIDs := make([]uuid.UUID, 0, len(records))
	seen := make(map[uuid.UUID]bool)
	for _, r := range records {
		if !seen[r.StoreID] {
			seen[r.StoreID] = true
			storeIDs = append(storeIDs, r.StoreID)
		}
	}

	stores, err := repos.StoreRepo().FindByIDs(ctx, storeIDs)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]bool, len(stores))
	for i := range stores {
		if stores[i].IsRetailer() && stores[i].Active {
			byID[stores[i].ID] = true
		}
	}
	for _, id := range storeIDs {
		if !byID[id] {
			return shared.NewDomainError(shared.CodeValidation, "Cart lines must sell from active retailer stores")
		}
	}
	return nil
}

// allocateLine splits one desired quantity between retailer stock and a
// sourced wholesaler substitute
func (s *Service) allocateLine(ctx context.Context, repos appfulfillment.TransactionalRepositories, matcher *domainfulfillment.SourcingMatcher, o *order.Order, record *inventory.InventoryRecord, desiredQty int, allowPartial bool) error {
	take, err := s.reserve(ctx, repos, record, desiredQty)
	if err != nil {
		return err
	}

	if take > 0 {
		if _, err := o.AddLine(record.ID, record.ProductID, record.ProductName, record.ProductImage, take, record.GetUnitPriceMoney(), false); err != nil {
			return err
		}
	}

	shortfall := desiredQty - take
	if shortfall == 0 {
		return nil
	}

	candidate, err := matcher.Match(ctx, record.StoreID, record.ProductID, record.ProductName, shortfall)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if !allowPartial {
			return shared.NewDomainError(shared.CodeInsufficientStock, "No wholesaler can cover the shortfall for "+record.ProductName)
		}
		s.logger.Warn("dropping unsourceable shortfall from order",
			zap.String("order_number", o.OrderNumber),
			zap.String("product", record.ProductName),
			zap.Int("shortfall", shortfall))
		return nil
	}

	_, err = o.AddRequirement(record.ProductID, record.ProductName, shortfall, candidate.StoreID, candidate.ID, candidate.GetUnitPriceMoney(), candidate.LeadTimeDays, record.LeadTimeDays)
	return err
}

// reserve decrements retailer stock for as much of the desired quantity as
// is available, retrying a bounded number of times when a concurrent
// checkout wins the conditional update
func (s *Service) reserve(ctx context.Context, repos appfulfillment.TransactionalRepositories, record *inventory.InventoryRecord, desiredQty int) (int, error) {
	take := desiredQty
	if record.StockQty < take {
		take = record.StockQty
	}

	for attempt := 0; take > 0; attempt++ {
		err := repos.InventoryRepo().DecrementStock(ctx, record.ID, take)
		if err == nil {
			return take, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return 0, err
		}
		if attempt >= s.reserveRetries {
			return 0, shared.NewDomainError(shared.CodeConcurrencyConflict, "Could not reserve stock for "+record.ProductName)
		}

		fresh, err := repos.InventoryRepo().FindByID(ctx, record.ID)
		if err != nil {
			return 0, err
		}
		*record = *fresh
		if record.StockQty < take {
			take = record.StockQty
		}
	}

	return 0, nil
}

// collectPayment charges each order that has no pending requirements.
// Orders awaiting approval settle at approval time, when their final total
// is known.
func (s *Service) collectPayment(ctx context.Context, actor appfulfillment.Actor, method string, orders []*order.Order) error {
	if method == "" {
		return nil
	}
	payMethod := payment.Method(method)
	if !payMethod.IsValid() {
		return shared.NewDomainError(shared.CodeValidation, "Unknown payment method "+method)
	}

	for _, o := range orders {
		if o.HasPendingApproval() || !o.TotalAmount.IsPositive() {
			continue
		}
		result, err := s.gateway.Charge(ctx, payment.ChargeRequest{
			Reference: o.OrderNumber,
			PayerID:   actor.UserID,
			Amount:    o.TotalAmount,
			Method:    payMethod,
		})
		if err != nil {
			return shared.NewDomainError(shared.CodeExternalFailure, "Payment gateway unavailable: "+err.Error())
		}
		if !result.Succeeded {
			return shared.NewDomainError(shared.CodeExternalFailure, "Payment declined: "+result.FailureReason)
		}
		if err := o.MarkPaid(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publishEvents(ctx context.Context, orders []*order.Order) {
	if s.eventPublisher == nil {
		return
	}
	for _, o := range orders {
		for _, ev := range o.GetDomainEvents() {
			if err := s.eventPublisher.Publish(ctx, ev); err != nil {
				s.logger.Error("failed to publish domain event",
					zap.String("event_type", ev.EventType()),
					zap.Error(err))
			}
		}
		o.ClearDomainEvents()
	}
}
