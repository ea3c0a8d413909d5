package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cardshop/internal/captcha"
	"cardshop/internal/config"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/metrics"
	"cardshop/internal/model"
	"cardshop/internal/payment"
	"cardshop/internal/repository"
)

const bcryptCost = 10

// CreateOrderInput is a buyer's purchase request.
type CreateOrderInput struct {
	ProductID    uuid.UUID
	Email        string
	Password     string
	Quantity     int
	ClientIP     string
	CaptchaToken string
}

// CreateOrderResult is returned once the cards are reserved.
type CreateOrderResult struct {
	OrderNo    string  `json:"order_no"`
	Amount     string  `json:"amount"`
	PaymentURL *string `json:"payment_url"`
}

// OrderService reserves cards for new orders.
type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error)
}

type orderService struct {
	store    repository.Store
	gateways GatewayRegistry
	captcha  captcha.Verifier
	cfg      config.OrderConfig
	logger   *zap.Logger
	newNo    func() string
}

// NewOrderService creates the reservation manager. A nil verifier disables the bot challenge.
func NewOrderService(store repository.Store, gateways GatewayRegistry, verifier captcha.Verifier, cfg config.OrderConfig, logger *zap.Logger) OrderService {
	return &orderService{
		store:    store,
		gateways: gateways,
		captcha:  verifier,
		cfg:      cfg,
		logger:   logger,
		newNo:    generateOrderNo,
	}
}

// CreateOrder validates the request and atomically inserts the order with its reserved cards.
func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, in.CaptchaToken, in.ClientIP); err != nil {
			s.logger.Info("bot challenge rejected", zap.String("ip", in.ClientIP), zap.Error(err))
			return nil, apperrors.BadRequest("Bot verification failed").WithCode(apperrors.CodeBotChallenge)
		}
	}
	email := normalizeEmail(in.Email)

	product, err := s.store.Products().FindByID(ctx, in.ProductID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !product.IsActive() {
		return nil, apperrors.NotFound("Product not found")
	}

	if in.Quantity < 1 || in.Quantity > product.MaxQuantity {
		return nil, apperrors.BadRequest(fmt.Sprintf("Quantity must be between 1 and %d", product.MaxQuantity)).
			WithCode(apperrors.CodeInvalidQuantity)
	}

	available, err := s.store.Cards().CountAvailable(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("count stock: %w", err)
	}
	if available < int64(in.Quantity) {
		return nil, insufficientStock(available)
	}

	amount := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
	if !amount.IsPositive() || amount.GreaterThan(s.cfg.AmountCeiling) {
		return nil, apperrors.BadRequest("Invalid order amount").WithCode(apperrors.CodeInvalidAmount)
	}

	if in.ClientIP != "" && s.cfg.MaxPendingPerIP > 0 {
		pending, err := s.store.Orders().CountPendingByIP(ctx, in.ClientIP)
		if err != nil {
			return nil, fmt.Errorf("count pending orders: %w", err)
		}
		if pending >= int64(s.cfg.MaxPendingPerIP) {
			return nil, apperrors.BadRequest(fmt.Sprintf(
				"Too many pending orders (%d). Please complete payment or wait for them to expire", pending,
			)).WithCode(apperrors.CodeTooManyPending)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	order, err := s.reserve(ctx, product, email, string(hash), in.Quantity, amount, in.ClientIP)
	if err != nil {
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	s.logger.Info("order created",
		zap.String("order_no", order.OrderNo),
		zap.String("product_id", product.ID.String()),
		zap.Int("quantity", order.Quantity),
		zap.String("amount", order.Amount.StringFixed(2)),
	)

	return &CreateOrderResult{
		OrderNo:    order.OrderNo,
		Amount:     order.Amount.StringFixed(2),
		PaymentURL: s.payURL(ctx, order, product),
	}, nil
}

// reserve runs the insert and claim as one transaction, retrying with a new order number on collisions.
func (s *orderService) reserve(ctx context.Context, product *model.Product, email, hash string, quantity int, amount decimal.Decimal, clientIP string) (*model.Order, error) {
	attempts := s.cfg.OrderNoAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		order := &model.Order{
			OrderNo:      s.newNo(),
			ProductID:    product.ID,
			Email:        email,
			PasswordHash: hash,
			Quantity:     quantity,
			Amount:       amount,
			Status:       model.OrderStatusPending,
		}
		if clientIP != "" {
			ip := clientIP
			order.ClientIP = &ip
		}

		err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			if err := tx.Orders().Create(ctx, order); err != nil {
				return err
			}
			cards, err := tx.Cards().ClaimAvailable(ctx, product.ID, order.ID, quantity)
			if err != nil {
				return err
			}
			if len(cards) < quantity {
				return insufficientStock(int64(len(cards)))
			}
			return nil
		})
		if err == nil {
			return order, nil
		}

		switch {
		case repository.IsDuplicateKey(err):
			s.logger.Warn("order number collision, retrying",
				zap.String("order_no", order.OrderNo), zap.Int("attempt", attempt))
			lastErr = err
			continue
		case errors.Is(err, repository.ErrClaimRace):
			return nil, apperrors.BadRequest("Insufficient stock").WithCode(apperrors.CodeInsufficientStock)
		case apperrors.KindOf(err) != apperrors.KindInternal:
			return nil, err
		default:
			return nil, fmt.Errorf("reserve cards: %w", err)
		}
	}
	return nil, apperrors.Internal("Could not allocate an order number", lastErr)
}

func (s *orderService) payURL(ctx context.Context, order *model.Order, product *model.Product) *string {
	if s.gateways == nil {
		return nil
	}
	gw := s.gateways.Default()
	if gw == nil {
		return nil
	}
	url, err := gw.BuildPayURL(ctx, payment.PayRequest{
		OrderNo: order.OrderNo,
		Amount:  order.Amount,
		Subject: product.Name,
	})
	if err != nil {
		s.logger.Warn("build pay url failed",
			zap.String("order_no", order.OrderNo), zap.String("provider", gw.Name()), zap.Error(err))
		return nil
	}
	return &url
}

func insufficientStock(available int64) error {
	return apperrors.BadRequest(fmt.Sprintf("Insufficient stock. Available: %d", available)).
		WithCode(apperrors.CodeInsufficientStock)
}

// generateOrderNo returns a timestamp prefix followed by random hex, e.g. 20260314150405A1B2C3D4.
func generateOrderNo() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return time.Now().Format("20060102150405") + strings.ToUpper(random[:8])
}
