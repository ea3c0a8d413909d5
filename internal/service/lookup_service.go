package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cardshop/internal/config"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

// dummyHash is compared against when no order matches so both failure paths cost one bcrypt run.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cardshop-lookup-placeholder"), bcryptCost)

// LookupResult is what a buyer sees after proving the order password.
type LookupResult struct {
	OrderNo     string            `json:"order_no"`
	ProductName string            `json:"product_name"`
	Quantity    int               `json:"quantity"`
	Amount      string            `json:"amount"`
	Status      model.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
	Cards       []string          `json:"cards"`
}

// LookupService lets buyers fetch their cards with the password chosen at checkout.
type LookupService interface {
	ByOrderNo(ctx context.Context, orderNo, password string) (*LookupResult, error)
	ByEmail(ctx context.Context, email, password string) (*LookupResult, error)
}

type lookupService struct {
	store   repository.Store
	machine StateMachine
	cfg     config.OrderConfig
	logger  *zap.Logger
}

// NewLookupService creates a new lookup service.
func NewLookupService(store repository.Store, machine StateMachine, cfg config.OrderConfig, logger *zap.Logger) LookupService {
	return &lookupService{store: store, machine: machine, cfg: cfg, logger: logger}
}

func (s *lookupService) ByOrderNo(ctx context.Context, orderNo, password string) (*LookupResult, error) {
	order, err := s.store.Orders().FindByOrderNo(ctx, orderNo)
	return s.resolve(ctx, order, err, password)
}

func (s *lookupService) ByEmail(ctx context.Context, email, password string) (*LookupResult, error) {
	order, err := s.store.Orders().FindLatestByEmail(ctx, normalizeEmail(email))
	return s.resolve(ctx, order, err, password)
}

func (s *lookupService) resolve(ctx context.Context, order *model.Order, findErr error, password string) (*LookupResult, error) {
	if findErr != nil {
		if !repository.IsNotFound(findErr) {
			return nil, fmt.Errorf("find order: %w", findErr)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, lookupFailed()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(order.PasswordHash), []byte(password)); err != nil {
		return nil, lookupFailed()
	}

	if order.Status == model.OrderStatusPending && s.cfg.LookupCompletesPending {
		result, err := s.machine.Transition(ctx, order.ID, model.OrderStatusCompleted)
		switch {
		case err == nil:
			if result.Changed {
				s.logger.Info("order completed by buyer lookup", zap.String("order_no", order.OrderNo))
			}
		case apperrors.IsKind(err, apperrors.KindConflict):
			// closed concurrently; show it as it is
		default:
			return nil, fmt.Errorf("complete order: %w", err)
		}
	}

	detailed, err := s.store.Orders().FindByOrderNo(ctx, order.OrderNo)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	out := &LookupResult{
		OrderNo:   detailed.OrderNo,
		Quantity:  detailed.Quantity,
		Amount:    detailed.Amount.StringFixed(2),
		Status:    detailed.Status,
		CreatedAt: detailed.CreatedAt,
		PaidAt:    detailed.PaidAt,
		Cards:     []string{},
	}
	if detailed.Product != nil {
		out.ProductName = detailed.Product.Name
	}

	if detailed.Status == model.OrderStatusPending {
		return out, nil
	}
	cards, err := s.store.Cards().ListByOrder(ctx, detailed.ID, model.CardStatusSold, model.CardStatusReserved)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	for _, card := range cards {
		out.Cards = append(out.Cards, card.Content)
	}
	return out, nil
}

func lookupFailed() error {
	return apperrors.BadRequest("Order not found or password incorrect").WithCode(apperrors.CodeLookupFailed)
}
