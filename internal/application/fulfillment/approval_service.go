package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/payment"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
)

// ApprovalService executes the bundled approval path: the retailer approves
// an order's fulfillment requirements and pays in one step. Per wholesaler
// store this creates a paid wholesaler-facing order plus one proxy order
// per requirement, born approved; the customer order's requirements are
// then resolved into proxy-sourced lines. Everything commits atomically.
type ApprovalService struct {
	txScope        TransactionScope
	gateway        payment.Gateway
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(txScope TransactionScope, gateway payment.Gateway, logger *zap.Logger) *ApprovalService {
	return &ApprovalService{
		txScope: txScope,
		gateway: gateway,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ApprovalService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ApproveAndPay approves every fulfillment requirement on the order,
// charges the retailer for the wholesaler purchases, and charges the
// customer the final order total. Stock is re-validated against each
// wholesaler record, since it may have moved since checkout.
func (s *ApprovalService) ApproveAndPay(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderResponse, error) {
	var approved *order.Order
	var created []*proxy.ProxyOrder
	var wholesalerOrders []*order.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.authorizeRetailer(ctx, repos, actor, o); err != nil {
			return err
		}
		if !o.HasPendingApproval() {
			return shared.NewDomainError(shared.CodeInvalidTransition, "Order has no fulfillment requirements awaiting approval")
		}

		if err := s.revalidateStock(ctx, repos, o); err != nil {
			return err
		}

		byWholesaler := groupByWholesaler(o.Requirements)
		for _, group := range byWholesaler {
			wo, proxies, err := s.buildWholesalerPurchase(ctx, repos, actor, o, group)
			if err != nil {
				return err
			}
			wholesalerOrders = append(wholesalerOrders, wo)
			created = append(created, proxies...)
		}

		if err := o.ResolveRequirements(); err != nil {
			return err
		}

		if err := s.settleCustomerPayment(ctx, o); err != nil {
			return err
		}

		for _, wo := range wholesalerOrders {
			if err := repos.OrderRepo().Save(ctx, wo); err != nil {
				return err
			}
		}
		for _, p := range created {
			if err := repos.ProxyRepo().Save(ctx, p); err != nil {
				return err
			}
		}
		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}

		approved = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, approved, wholesalerOrders, created)

	resp := ToOrderResponse(approved)
	return &resp, nil
}

func (s *ApprovalService) authorizeRetailer(ctx context.Context, repos TransactionalRepositories, actor Actor, o *order.Order) error {
	if actor.StoreID == uuid.Nil || actor.StoreID != o.SellerStoreID {
		return shared.ErrForbidden
	}
	st, err := repos.StoreRepo().FindByID(ctx, actor.StoreID)
	if err != nil {
		return err
	}
	if !st.IsRetailer() || !st.IsOwnedBy(actor.UserID) {
		return shared.ErrForbidden
	}
	return nil
}

// revalidateStock re-checks every requirement against the current
// wholesaler record. Checkout's match was a snapshot; stock may be gone.
func (s *ApprovalService) revalidateStock(ctx context.Context, repos TransactionalRepositories, o *order.Order) error {
	for _, req := range o.Requirements {
		record, err := repos.InventoryRepo().FindByID(ctx, req.WholesalerInventoryID)
		if err != nil {
			return err
		}
		if !record.CanFulfill(req.Quantity) {
			return shared.NewDomainError(shared.CodeInsufficientStock, "Wholesaler stock no longer covers "+req.ProductName)
		}
	}
	return nil
}

// buildWholesalerPurchase creates the paid wholesaler-facing order and the
// approved proxy orders for one wholesaler's share of the requirements
func (s *ApprovalService) buildWholesalerPurchase(ctx context.Context, repos TransactionalRepositories, actor Actor, o *order.Order, group []order.Requirement) (*order.Order, []*proxy.ProxyOrder, error) {
	number, err := repos.OrderRepo().GenerateOrderNumber(ctx)
	if err != nil {
		return nil, nil, err
	}
	wo, err := order.NewWholesalerOrder(number, actor.UserID, o.SellerStoreID, group[0].WholesalerStoreID)
	if err != nil {
		return nil, nil, err
	}
	for _, req := range group {
		unitPrice := valueFromRequirement(req)
		if _, err := wo.AddLine(req.WholesalerInventoryID, req.ProductID, req.ProductName, "", req.Quantity, unitPrice, false); err != nil {
			return nil, nil, err
		}
	}

	result, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		Reference: wo.OrderNumber,
		PayerID:   actor.UserID,
		Amount:    wo.TotalAmount,
		Method:    payment.MethodBalance,
	})
	if err != nil {
		return nil, nil, shared.NewDomainError(shared.CodeExternalFailure, "Payment gateway unavailable: "+err.Error())
	}
	if !result.Succeeded {
		return nil, nil, shared.NewDomainError(shared.CodeExternalFailure, "Wholesaler payment declined: "+result.FailureReason)
	}
	if err := wo.MarkPaid(); err != nil {
		return nil, nil, err
	}

	proxies := make([]*proxy.ProxyOrder, 0, len(group))
	for _, req := range group {
		p, err := proxy.NewApprovedProxyOrder(o.SellerStoreID, req.WholesalerStoreID, req.ProductID, req.ProductName, req.WholesalerInventoryID, req.Quantity, valueFromRequirement(req), o.ID, wo.ID)
		if err != nil {
			return nil, nil, err
		}
		proxies = append(proxies, p)
	}

	return wo, proxies, nil
}

// settleCustomerPayment charges the customer the final order total once the
// requirements have been resolved into lines. Orders already paid at
// checkout are left alone.
func (s *ApprovalService) settleCustomerPayment(ctx context.Context, o *order.Order) error {
	if o.PaymentStatus != order.PaymentStatusPending || !o.TotalAmount.IsPositive() {
		return nil
	}
	result, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		Reference: o.OrderNumber,
		PayerID:   o.BuyerID,
		Amount:    o.TotalAmount,
		Method:    payment.MethodCard,
	})
	if err != nil {
		return shared.NewDomainError(shared.CodeExternalFailure, "Payment gateway unavailable: "+err.Error())
	}
	if !result.Succeeded {
		return shared.NewDomainError(shared.CodeExternalFailure, "Payment declined: "+result.FailureReason)
	}
	return o.MarkPaid()
}

func (s *ApprovalService) publishEvents(ctx context.Context, o *order.Order, wholesalerOrders []*order.Order, proxies []*proxy.ProxyOrder) {
	if s.eventPublisher == nil {
		return
	}
	roots := make([]shared.AggregateRoot, 0, len(wholesalerOrders)+len(proxies)+1)
	roots = append(roots, o)
	for _, wo := range wholesalerOrders {
		roots = append(roots, wo)
	}
	for _, p := range proxies {
		roots = append(roots, p)
	}
	for _, root := range roots {
		for _, ev := range root.GetDomainEvents() {
			if err := s.eventPublisher.Publish(ctx, ev); err != nil {
				s.logger.Error("failed to publish domain event",
					zap.String("event_type", ev.EventType()),
					zap.Error(err))
			}
		}
		root.ClearDomainEvents()
	}
}

// groupByWholesaler buckets requirements per wholesaler store, keeping
// first-appearance order
func groupByWholesaler(reqs []order.Requirement) [][]order.Requirement {
	index := make(map[uuid.UUID]int)
	var groups [][]order.Requirement
	for _, req := range reqs {
		i, ok := index[req.WholesalerStoreID]
		if !ok {
			i = len(groups)
			index[req.WholesalerStoreID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], req)
	}
	return groups
}

func valueFromRequirement(req order.Requirement) valueobject.Money {
	return valueobject.NewMoneyUSD(req.UnitPrice)
}
