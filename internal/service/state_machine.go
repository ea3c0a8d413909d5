package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/metrics"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

// TransitionResult describes what a transition did.
type TransitionResult struct {
	Order    *model.Order
	Previous model.OrderStatus
	// Changed is false when the order was already in the target status.
	Changed  bool
	Sold     int64
	Released int64
}

// StateMachine is the only path allowed to change an order's status and its cards' status.
type StateMachine interface {
	Transition(ctx context.Context, orderID uuid.UUID, to model.OrderStatus) (*TransitionResult, error)
}

type stateMachine struct {
	store repository.Store
	now   Clock
}

// NewStateMachine creates the order state machine.
func NewStateMachine(store repository.Store) StateMachine {
	return &stateMachine{store: store, now: time.Now}
}

// Transition moves an order to the target status together with its card side effects.
// Same status is a successful no-op; any move out of a terminal status is a conflict.
func (m *stateMachine) Transition(ctx context.Context, orderID uuid.UUID, to model.OrderStatus) (*TransitionResult, error) {
	if !to.Valid() {
		return nil, apperrors.Validation("invalid order status", map[string]string{"status": "oneof"})
	}

	var result *TransitionResult
	err := m.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		order, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NotFound("Order not found")
			}
			return fmt.Errorf("lock order: %w", err)
		}

		result = &TransitionResult{Order: order, Previous: order.Status}
		if order.Status == to {
			return nil
		}
		if !model.CanTransition(order.Status, to) {
			return invalidTransition(order.Status, to)
		}

		var paidAt *time.Time
		if to == model.OrderStatusCompleted {
			now := m.now()
			paidAt = &now
		}

		n, err := tx.Orders().UpdateStatus(ctx, order.ID, order.Status, to, paidAt)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if n == 0 {
			// someone else moved it first; judge the request against the status that won
			current, err := tx.Orders().FindByID(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("reload order: %w", err)
			}
			result.Order = current
			result.Previous = current.Status
			if current.Status == to {
				return nil
			}
			return invalidTransition(current.Status, to)
		}

		switch to {
		case model.OrderStatusCompleted:
			result.Sold, err = tx.Cards().MarkSoldByOrder(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("mark cards sold: %w", err)
			}
			order.PaidAt = paidAt
		case model.OrderStatusClosed:
			result.Released, err = tx.Cards().ReleaseByOrder(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("release cards: %w", err)
			}
		}

		order.Status = to
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	}
	return result, nil
}

func invalidTransition(from, to model.OrderStatus) error {
	return apperrors.Conflict(fmt.Sprintf("Cannot change order status from %s to %s", from, to)).
		WithCode(apperrors.CodeInvalidTransition)
}
