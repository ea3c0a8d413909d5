package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cardshop/internal/model"
)

// ErrClaimRace is returned when another transaction took cards between the locked read and the update.
var ErrClaimRace = errors.New("card claim lost to a concurrent reservation")

// CardFilter narrows card listings.
type CardFilter struct {
	ProductID *uuid.UUID
	Status    model.CardStatus
	OrderID   *uuid.UUID
}

// CardRepository defines card persistence operations. Only the reservation and
// state machine paths may change card status or order ownership.
type CardRepository interface {
	CreateBatch(ctx context.Context, cards []model.Card) error
	CountAvailable(ctx context.Context, productID uuid.UUID) (int64, error)
	// ClaimAvailable locks up to n UNSOLD cards of a product, oldest first, and reserves them
	// for orderID. It returns the cards it found; fewer than n means nothing was changed.
	ClaimAvailable(ctx context.Context, productID, orderID uuid.UUID, n int) ([]model.Card, error)
	MarkSoldByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	ReleaseByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID, statuses ...model.CardStatus) ([]model.Card, error)
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	ExistingContents(ctx context.Context, productID uuid.UUID, contents []string) ([]string, error)
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Card, error)
	DeleteUnsold(ctx context.Context, ids []uuid.UUID) (int64, error)
	List(ctx context.Context, filter CardFilter, page Page) ([]model.Card, int64, error)
}

type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

// CreateBatch inserts imported cards.
func (r *cardRepository) CreateBatch(ctx context.Context, cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(cards, 200).Error
}

// CountAvailable counts UNSOLD cards for a product.
func (r *cardRepository) CountAvailable(ctx context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Card{}).
		Where("product_id = ? AND status = ?", productID, model.CardStatusUnsold).
		Count(&n).Error
	return n, err
}

// ClaimAvailable reserves n cards for an order inside the caller's transaction.
func (r *cardRepository) ClaimAvailable(ctx context.Context, productID, orderID uuid.UUID, n int) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND status = ?", productID, model.CardStatusUnsold).
		Order("created_at ASC").Order("id ASC").
		Limit(n).
		Find(&cards).Error; err != nil {
		return nil, err
	}
	if len(cards) < n {
		return cards, nil
	}

	ids := make([]uuid.UUID, len(cards))
	for i := range cards {
		ids[i] = cards[i].ID
	}
	res := r.db.WithContext(ctx).Model(&model.Card{}).
		Where("id IN ? AND status = ?", ids, model.CardStatusUnsold).
		Updates(map[string]interface{}{
			"status":   model.CardStatusReserved,
			"order_id": orderID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != int64(n) {
		return nil, ErrClaimRace
	}

	for i := range cards {
		cards[i].Status = model.CardStatusReserved
		cards[i].OrderID = &orderID
	}
	return cards, nil
}

// MarkSoldByOrder flips an order's RESERVED cards to SOLD.
func (r *cardRepository) MarkSoldByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Card{}).
		Where("order_id = ? AND status = ?", orderID, model.CardStatusReserved).
		Update("status", model.CardStatusSold)
	return res.RowsAffected, res.Error
}

// ReleaseByOrder returns an order's RESERVED cards to the pool. SOLD cards are left alone.
func (r *cardRepository) ReleaseByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Card{}).
		Where("order_id = ? AND status = ?", orderID, model.CardStatusReserved).
		Updates(map[string]interface{}{
			"status":   model.CardStatusUnsold,
			"order_id": nil,
		})
	return res.RowsAffected, res.Error
}

// ListByOrder lists an order's cards, optionally restricted to statuses.
func (r *cardRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, statuses ...model.CardStatus) ([]model.Card, error) {
	q := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var cards []model.Card
	if err := q.Order("created_at ASC").Order("id ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// CountByOrder counts every card pointing at an order.
func (r *cardRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Card{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

// ExistingContents returns which of contents are already stored for a product.
func (r *cardRepository) ExistingContents(ctx context.Context, productID uuid.UUID, contents []string) ([]string, error) {
	var existing []string
	for start := 0; start < len(contents); start += 500 {
		end := start + 500
		if end > len(contents) {
			end = len(contents)
		}
		var chunk []string
		if err := r.db.WithContext(ctx).Model(&model.Card{}).
			Where("product_id = ? AND content IN ?", productID, contents[start:end]).
			Pluck("content", &chunk).Error; err != nil {
			return nil, err
		}
		existing = append(existing, chunk...)
	}
	return existing, nil
}

// FindByIDsForUpdate locks the given cards.
func (r *cardRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// DeleteUnsold hard deletes cards that are still UNSOLD.
func (r *cardRepository) DeleteUnsold(ctx context.Context, ids []uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, model.CardStatusUnsold).
		Delete(&model.Card{})
	return res.RowsAffected, res.Error
}

// List lists cards for the admin surface.
func (r *cardRepository) List(ctx context.Context, filter CardFilter, page Page) ([]model.Card, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Card{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderID != nil {
		q = q.Where("order_id = ?", *filter.OrderID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := page.normalize()
	var cards []model.Card
	if err := q.Session(&gorm.Session{}).Order("created_at DESC").Offset(offset).Limit(limit).Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}
