package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cardshop/internal/model"
)

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status  model.OrderStatus
	Email   string
	OrderNo string
}

// OrderRepository defines order persistence operations. Status changes go through UpdateStatus only.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	FindLatestByEmail(ctx context.Context, email string) (*model.Order, error)
	FindWithDetails(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// UpdateStatus moves an order from one status to another and reports the affected rows.
	// Zero rows means the order was no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, paidAt *time.Time) (int64, error)
	CountPendingByIP(ctx context.Context, ip string) (int64, error)
	ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]model.Order, error)
	List(ctx context.Context, filter OrderFilter, page Page) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new order record.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

// FindByID finds an order by ID.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate finds an order by ID with a row-level lock.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByOrderNo finds an order by its public order number.
func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Product").
		Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindLatestByEmail finds the most recent order placed with an email.
func (r *orderRepository) FindLatestByEmail(ctx context.Context, email string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Product").
		Where("email = ?", email).
		Order("created_at DESC").Order("id DESC").
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindWithDetails loads an order with its product and cards.
func (r *orderRepository) FindWithDetails(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus is a compare-and-set on the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, paidAt *time.Time) (int64, error) {
	updates := map[string]interface{}{"status": to}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// CountPendingByIP counts PENDING orders placed from an IP.
func (r *orderRepository) CountPendingByIP(ctx context.Context, ip string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("client_ip = ? AND status = ?", ip, model.OrderStatusPending).
		Count(&n).Error
	return n, err
}

// ListExpiredPending lists PENDING orders created before a cutoff, oldest first.
func (r *orderRepository) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = -1
	}
	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.OrderStatusPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// List lists orders for the admin surface, newest first.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter, page Page) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}
	if filter.OrderNo != "" {
		q = q.Where("order_no = ?", filter.OrderNo)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := page.normalize()
	var orders []model.Order
	if err := q.Session(&gorm.Session{}).Preload("Product").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
