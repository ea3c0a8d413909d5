package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cardshop/internal/model"
)

// RestockRepository defines restock subscription persistence operations.
type RestockRepository interface {
	Create(ctx context.Context, sub *model.RestockSubscription) error
	FindByProductAndEmail(ctx context.Context, productID uuid.UUID, email string) (*model.RestockSubscription, error)
	ListPending(ctx context.Context, productID uuid.UUID) ([]model.RestockSubscription, error)
	MarkNotified(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
	Reopen(ctx context.Context, id uuid.UUID) error
}

type restockRepository struct {
	db *gorm.DB
}

// NewRestockRepository creates a new restock subscription repository.
func NewRestockRepository(db *gorm.DB) RestockRepository {
	return &restockRepository{db: db}
}

// Create creates a subscription. A duplicate product and email pair fails with a unique violation.
func (r *restockRepository) Create(ctx context.Context, sub *model.RestockSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *restockRepository) FindByProductAndEmail(ctx context.Context, productID uuid.UUID, email string) (*model.RestockSubscription, error) {
	var sub model.RestockSubscription
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND email = ?", productID, email).
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListPending lists subscribers still waiting for stock.
func (r *restockRepository) ListPending(ctx context.Context, productID uuid.UUID) ([]model.RestockSubscription, error) {
	var subs []model.RestockSubscription
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, model.RestockStatusPending).
		Order("created_at ASC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// MarkNotified flips PENDING subscriptions to NOTIFIED.
func (r *restockRepository) MarkNotified(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.RestockSubscription{}).
		Where("id IN ? AND status = ?", ids, model.RestockStatusPending).
		Updates(map[string]interface{}{
			"status":      model.RestockStatusNotified,
			"notified_at": at,
		})
	return res.RowsAffected, res.Error
}

// Reopen puts a notified subscription back into PENDING.
func (r *restockRepository) Reopen(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.RestockSubscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.RestockStatusPending,
			"notified_at": nil,
		}).Error
}
