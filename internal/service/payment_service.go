package service

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/metrics"
	"cardshop/internal/model"
	"cardshop/internal/payment"
	"cardshop/internal/repository"
)

// PaymentService handles asynchronous payment provider notifications.
type PaymentService interface {
	// HandleNotify verifies and applies a notification. A nil error means the provider should be acked.
	HandleNotify(ctx context.Context, provider string, r *http.Request) error
}

type paymentService struct {
	store    repository.Store
	machine  StateMachine
	gateways GatewayRegistry
	notifier Notifier
	logger   *zap.Logger
}

// NewPaymentService creates a new payment notification service.
func NewPaymentService(store repository.Store, machine StateMachine, gateways GatewayRegistry, notifier Notifier, logger *zap.Logger) PaymentService {
	if notifier == nil {
		notifier = noopNotifier()
	}
	return &paymentService{store: store, machine: machine, gateways: gateways, notifier: notifier, logger: logger}
}

func (s *paymentService) HandleNotify(ctx context.Context, provider string, r *http.Request) error {
	gw, ok := s.gateways.Get(provider)
	if !ok {
		metrics.PaymentNotify.WithLabelValues("unknown_provider").Inc()
		return apperrors.NotFound("Payment provider not enabled")
	}

	n, err := gw.ParseNotify(ctx, r)
	if err != nil {
		metrics.PaymentNotify.WithLabelValues("bad_signature").Inc()
		s.logger.Warn("payment notify rejected", zap.String("provider", provider), zap.Error(err))
		return apperrors.BadRequest("Invalid signature")
	}
	return s.apply(ctx, n)
}

// apply runs a verified notification through the state machine.
func (s *paymentService) apply(ctx context.Context, n *payment.Notification) error {
	log := s.logger.With(
		zap.String("provider", n.Provider),
		zap.String("order_no", n.OutTradeNo),
		zap.String("trade_no", n.TradeNo),
		zap.String("trade_status", n.TradeStatus),
	)

	if !n.Paid() {
		metrics.PaymentNotify.WithLabelValues("ignored").Inc()
		log.Info("payment notify without paid status")
		return nil
	}

	order, err := s.store.Orders().FindByOrderNo(ctx, n.OutTradeNo)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.PaymentNotify.WithLabelValues("unknown_order").Inc()
			log.Warn("payment notify for unknown order")
			return apperrors.NotFound("Order not found")
		}
		return fmt.Errorf("find order: %w", err)
	}

	if n.Amount != order.Amount.StringFixed(2) {
		metrics.PaymentNotify.WithLabelValues("amount_mismatch").Inc()
		log.Warn("payment notify amount mismatch",
			zap.String("reported", n.Amount), zap.String("expected", order.Amount.StringFixed(2)))
		return apperrors.BadRequest("Amount mismatch")
	}

	switch order.Status {
	case model.OrderStatusCompleted:
		metrics.PaymentNotify.WithLabelValues("duplicate").Inc()
		return nil
	case model.OrderStatusClosed:
		metrics.PaymentNotify.WithLabelValues("closed").Inc()
		log.Warn("payment received for closed order, manual refund needed")
		return nil
	}

	result, err := s.machine.Transition(ctx, order.ID, model.OrderStatusCompleted)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindConflict) {
			// closed by the sweeper between the read above and the lock
			metrics.PaymentNotify.WithLabelValues("closed").Inc()
			log.Warn("payment received for closed order, manual refund needed")
			return nil
		}
		metrics.PaymentNotify.WithLabelValues("error").Inc()
		return fmt.Errorf("complete order: %w", err)
	}

	if result.Changed {
		s.notifier.OrderCompleted(order.ID)
		log.Info("order paid", zap.Int64("cards_sold", result.Sold))
	}
	metrics.PaymentNotify.WithLabelValues("completed").Inc()
	return nil
}
