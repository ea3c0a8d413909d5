package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

// AdminOrderService is the back office view of orders.
type AdminOrderService interface {
	List(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]model.Order, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, actor *auth.Principal, id uuid.UUID, status string) (*model.Order, error)
	// Close is the admin delete: the order is closed, never removed.
	Close(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*model.Order, error)
}

type adminOrderService struct {
	store    repository.Store
	machine  StateMachine
	restocks RestockService
	notifier Notifier
	logger   *zap.Logger
	now      Clock
}

// NewAdminOrderService creates a new admin order service.
func NewAdminOrderService(store repository.Store, machine StateMachine, restocks RestockService, notifier Notifier, logger *zap.Logger) AdminOrderService {
	if notifier == nil {
		notifier = noopNotifier()
	}
	return &adminOrderService{
		store:    store,
		machine:  machine,
		restocks: restocks,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *adminOrderService) List(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]model.Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.Validation("invalid status filter", map[string]string{"status": "oneof"})
	}
	filter.Email = normalizeEmail(filter.Email)

	orders, total, err := s.store.Orders().List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *adminOrderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.store.Orders().FindWithDetails(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *adminOrderService) UpdateStatus(ctx context.Context, actor *auth.Principal, id uuid.UUID, status string) (*model.Order, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	to := model.OrderStatus(status)
	if to != model.OrderStatusCompleted && to != model.OrderStatusClosed {
		return nil, apperrors.Validation("Invalid status", map[string]string{
			"status": fmt.Sprintf("must be one of %s, %s", model.OrderStatusCompleted, model.OrderStatusClosed),
		})
	}
	return s.transition(ctx, actor, id, to)
}

func (s *adminOrderService) Close(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*model.Order, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	return s.transition(ctx, actor, id, model.OrderStatusClosed)
}

func (s *adminOrderService) transition(ctx context.Context, actor *auth.Principal, id uuid.UUID, to model.OrderStatus) (*model.Order, error) {
	// the state machine re-locks the order; this read only gives a clean NOT_FOUND
	if _, err := s.store.Orders().FindByID(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	result, err := s.machine.Transition(ctx, id, to)
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.logger.Info("admin changed order status",
			zap.Uint("actor_id", actor.AdminID),
			zap.String("actor_email", actor.Email),
			zap.String("order_id", id.String()),
			zap.String("from", string(result.Previous)),
			zap.String("to", string(to)),
			zap.Time("at", s.now()),
		)
		switch {
		case to == model.OrderStatusCompleted:
			s.notifier.OrderCompleted(id)
		case result.Released > 0 && s.restocks != nil:
			if _, err := s.restocks.Check(ctx, result.Order.ProductID); err != nil {
				s.logger.Warn("restock check failed", zap.String("product_id", result.Order.ProductID.String()), zap.Error(err))
			}
		}
	}

	return s.Get(ctx, id)
}
