package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

// RestockService manages back-in-stock subscriptions.
type RestockService interface {
	Subscribe(ctx context.Context, productID uuid.UUID, email, clientIP string) (*model.RestockSubscription, error)
	// Check notifies pending subscribers of a product that has stock again.
	Check(ctx context.Context, productID uuid.UUID) (int, error)
}

type restockService struct {
	store    repository.Store
	notifier Notifier
	logger   *zap.Logger
	now      Clock
}

// NewRestockService creates a new restock service.
func NewRestockService(store repository.Store, notifier Notifier, logger *zap.Logger) RestockService {
	if notifier == nil {
		notifier = noopNotifier()
	}
	return &restockService{store: store, notifier: notifier, logger: logger, now: time.Now}
}

// Subscribe records interest in an out of stock product. Subscribing twice returns the first subscription.
func (s *restockService) Subscribe(ctx context.Context, productID uuid.UUID, email, clientIP string) (*model.RestockSubscription, error) {
	email = normalizeEmail(email)

	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !product.IsActive() {
		return nil, apperrors.NotFound("Product not found")
	}

	available, err := s.store.Cards().CountAvailable(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("count stock: %w", err)
	}
	if available > 0 {
		return nil, apperrors.BadRequest("Product is in stock")
	}

	existing, err := s.store.Restocks().FindByProductAndEmail(ctx, productID, email)
	if err == nil {
		if existing.Status == model.RestockStatusNotified {
			if err := s.store.Restocks().Reopen(ctx, existing.ID); err != nil {
				return nil, fmt.Errorf("reopen subscription: %w", err)
			}
			existing.Status = model.RestockStatusPending
			existing.NotifiedAt = nil
		}
		return existing, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("find subscription: %w", err)
	}

	sub := &model.RestockSubscription{
		ProductID: productID,
		Email:     email,
		Status:    model.RestockStatusPending,
	}
	if clientIP != "" {
		sub.ClientIP = &clientIP
	}
	if err := s.store.Restocks().Create(ctx, sub); err != nil {
		if repository.IsDuplicateKey(err) {
			return s.store.Restocks().FindByProductAndEmail(ctx, productID, email)
		}
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

func (s *restockService) Check(ctx context.Context, productID uuid.UUID) (int, error) {
	available, err := s.store.Cards().CountAvailable(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("count stock: %w", err)
	}
	if available == 0 {
		return 0, nil
	}

	subs, err := s.store.Restocks().ListPending(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("get product: %w", err)
	}

	ids := make([]uuid.UUID, len(subs))
	for i := range subs {
		ids[i] = subs[i].ID
	}
	if _, err := s.store.Restocks().MarkNotified(ctx, ids, s.now()); err != nil {
		return 0, fmt.Errorf("mark subscriptions notified: %w", err)
	}

	s.notifier.RestockAvailable(product, subs)
	s.logger.Info("restock subscribers notified",
		zap.String("product_id", productID.String()),
		zap.Int("subscribers", len(subs)),
		zap.Int64("available", available),
	)
	return len(subs), nil
}
