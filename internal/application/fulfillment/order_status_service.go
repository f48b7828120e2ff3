package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainfulfillment "github.com/openmarket/backend/internal/domain/fulfillment"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
)

// OrderStatusService advances customer-facing orders through their status
// chain. Every advancement runs through the status guard, so an order
// whose proxy orders have not delivered can never move forward; on
// delivery, linked proxy orders complete in the same transaction.
type OrderStatusService struct {
	txScope        TransactionScope
	guard          *domainfulfillment.StatusGuard
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderStatusService creates a new OrderStatusService
func NewOrderStatusService(txScope TransactionScope, guard *domainfulfillment.StatusGuard, logger *zap.Logger) *OrderStatusService {
	return &OrderStatusService{
		txScope: txScope,
		guard:   guard,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderStatusService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Advance moves an order to the target status if the guard permits
func (s *OrderStatusService) Advance(ctx context.Context, actor Actor, orderID uuid.UUID, target order.Status) (*OrderResponse, error) {
	if !target.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown order status "+target.String())
	}

	var advanced *order.Order
	var completed []*proxy.ProxyOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.authorizeSeller(actor, o); err != nil {
			return err
		}

		proxies, err := repos.ProxyRepo().FindByCustomerOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if err := s.guard.CheckAdvance(o, proxies, target); err != nil {
			return err
		}
		if err := o.AdvanceTo(target); err != nil {
			return err
		}

		if target == order.StatusDelivered {
			// pay-on-delivery orders settle when the goods arrive
			if o.PaymentStatus == order.PaymentStatusPending {
				if err := o.MarkPaid(); err != nil {
					return err
				}
			}
			for _, p := range s.guard.CompletableProxies(proxies) {
				if err := p.Complete(); err != nil {
					return err
				}
				if err := repos.ProxyRepo().SaveWithLock(ctx, p); err != nil {
					return err
				}
				completed = append(completed, p)
			}
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		advanced = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, advanced, completed)

	resp := ToOrderResponse(advanced)
	return &resp, nil
}

// Cancel cancels an order with a mandatory reason. The buyer or the
// selling store may cancel; linked pre-delivery proxy orders are cancelled
// alongside it.
func (s *OrderStatusService) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (*OrderResponse, error) {
	var cancelled *order.Order
	var cascaded []*proxy.ProxyOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if actor.UserID != o.BuyerID && actor.StoreID != o.SellerStoreID {
			return shared.ErrForbidden
		}
		if err := o.Cancel(reason); err != nil {
			return err
		}

		proxies, err := repos.ProxyRepo().FindByCustomerOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		for i := range proxies {
			p := &proxies[i]
			if p.Status.IsTerminal() || p.Status == proxy.StatusDeliveredToRetailer {
				continue
			}
			if err := p.Cancel("Customer order cancelled: " + reason); err != nil {
				return err
			}
			if err := repos.ProxyRepo().SaveWithLock(ctx, p); err != nil {
				return err
			}
			cascaded = append(cascaded, p)
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, cancelled, cascaded)

	resp := ToOrderResponse(cancelled)
	return &resp, nil
}

// GetByID retrieves an order visible to the actor
func (s *OrderStatusService) GetByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderResponse, error) {
	var resp OrderResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if actor.UserID != o.BuyerID && actor.StoreID != o.SellerStoreID {
			return shared.ErrForbidden
		}
		resp = ToOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListForBuyer lists the actor's own orders
func (s *OrderStatusService) ListForBuyer(ctx context.Context, actor Actor, filter shared.Filter) ([]OrderResponse, error) {
	return s.list(ctx, func(ctx context.Context, repos TransactionalRepositories) ([]order.Order, error) {
		return repos.OrderRepo().FindByBuyer(ctx, actor.UserID, filter)
	})
}

// ListForSellerStore lists orders sold by the actor's store
func (s *OrderStatusService) ListForSellerStore(ctx context.Context, actor Actor, filter shared.Filter) ([]OrderResponse, error) {
	return s.list(ctx, func(ctx context.Context, repos TransactionalRepositories) ([]order.Order, error) {
		return repos.OrderRepo().FindBySellerStore(ctx, actor.StoreID, filter)
	})
}

// ListPendingApproval lists the actor store's orders still awaiting
// requirement approval
func (s *OrderStatusService) ListPendingApproval(ctx context.Context, actor Actor, filter shared.Filter) ([]OrderResponse, error) {
	return s.list(ctx, func(ctx context.Context, repos TransactionalRepositories) ([]order.Order, error) {
		return repos.OrderRepo().FindPendingApprovalBySellerStore(ctx, actor.StoreID, filter)
	})
}

func (s *OrderStatusService) list(ctx context.Context, query func(context.Context, TransactionalRepositories) ([]order.Order, error)) ([]OrderResponse, error) {
	var out []OrderResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders, err := query(ctx, repos)
		if err != nil {
			return err
		}
		out = make([]OrderResponse, 0, len(orders))
		for i := range orders {
			out = append(out, ToOrderResponse(&orders[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OrderStatusService) authorizeSeller(actor Actor, o *order.Order) error {
	if actor.StoreID == uuid.Nil || actor.StoreID != o.SellerStoreID {
		return shared.ErrForbidden
	}
	return nil
}

func (s *OrderStatusService) publish(ctx context.Context, o *order.Order, proxies []*proxy.ProxyOrder) {
	if s.eventPublisher == nil {
		return
	}
	roots := make([]shared.AggregateRoot, 0, len(proxies)+1)
	if o != nil {
		roots = append(roots, o)
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
