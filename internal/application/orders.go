package application

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

type OrderService struct {
	gate   *AuthorizationGate
	orders ports.OrderStore
	logger ports.Logger
}

func NewOrderService(gate *AuthorizationGate, orders ports.OrderStore, logger ports.Logger) *OrderService {
	return &OrderService{gate: gate, orders: orders, logger: logger}
}

// List returns every order in the system and is restricted to admins.
func (s *OrderService) List(ctx context.Context, roles []int64) ([]domain.Order, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionAdmin); err != nil {
		return nil, err
	}
	return s.collect(ctx, "list orders", func() ([]domain.Order, bool, error) {
		return s.orders.GetAll(ctx)
	})
}

func (s *OrderService) Get(ctx context.Context, roles []int64, orderID int64) (domain.Order, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionRead); err != nil {
		return domain.Order{}, err
	}
	order, ok, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, storeFailure(ctx, s.logger, "get order", err)
	}
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, roles []int64, userID int64) ([]domain.Order, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionRead); err != nil {
		return nil, err
	}
	return s.collect(ctx, "list user orders", func() ([]domain.Order, bool, error) {
		return s.orders.ListByUser(ctx, userID)
	})
}

func (s *OrderService) ListByStatus(ctx context.Context, roles []int64, status string) ([]domain.Order, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionRead); err != nil {
		return nil, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !domain.ValidOrderStatus(status) {
		return nil, domain.ErrInvalidInput
	}
	return s.collect(ctx, "list orders by status", func() ([]domain.Order, bool, error) {
		return s.orders.ListByStatus(ctx, status)
	})
}

// ListByRoleName returns the orders placed by users holding a role with the
// given name.
func (s *OrderService) ListByRoleName(ctx context.Context, roles []int64, roleName string) ([]domain.Order, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionAdmin); err != nil {
		return nil, err
	}
	if strings.TrimSpace(roleName) == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.collect(ctx, "list orders by role", func() ([]domain.Order, bool, error) {
		return s.orders.ListByRoleName(ctx, roleName)
	})
}

func (s *OrderService) Create(ctx context.Context, roles []int64, order domain.NewOrder) (int64, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return 0, err
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	order.Status = strings.ToLower(order.Status)
	if order.UserID <= 0 || !domain.ValidOrderStatus(order.Status) || order.Total.LessThan(decimal.Zero) {
		return 0, domain.ErrInvalidInput
	}
	id, err := s.orders.Add(ctx, order)
	if err != nil {
		return 0, storeFailure(ctx, s.logger, "create order", err)
	}
	s.logger.Info(ctx, "order created", "order_id", id, "user_id", order.UserID)
	return id, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, roles []int64, orderID int64, status string) error {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !domain.ValidOrderStatus(status) {
		return domain.ErrInvalidInput
	}
	if err := s.orders.Update(ctx, orderID, domain.UpdateOrder{Status: &status}); err != nil {
		return storeFailure(ctx, s.logger, "update order status", err)
	}
	return nil
}

func (s *OrderService) collect(ctx context.Context, op string, fetch func() ([]domain.Order, bool, error)) ([]domain.Order, error) {
	orders, ok, err := fetch()
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, err)
	}
	if !ok {
		return []domain.Order{}, nil
	}
	return orders, nil
}
