// Package testutil provides sqlite backed fixtures for store level tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cardshop/internal/db"
	"cardshop/internal/model"
)

// NewDB opens a migrated sqlite database in a temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

// ProductOption customizes a seeded product.
type ProductOption func(*model.Product)

// WithPrice sets the product price.
func WithPrice(price string) ProductOption {
	return func(p *model.Product) { p.Price = decimal.RequireFromString(price) }
}

// WithMaxQuantity sets the per order cap.
func WithMaxQuantity(n int) ProductOption {
	return func(p *model.Product) { p.MaxQuantity = n }
}

// WithStatus sets the product status.
func WithStatus(s model.ProductStatus) ProductOption {
	return func(p *model.Product) { p.Status = s }
}

// SeedProduct inserts an active product priced 50.00 with max quantity 2 unless overridden.
func SeedProduct(t *testing.T, gormDB *gorm.DB, opts ...ProductOption) *model.Product {
	t.Helper()

	id := uuid.New()
	p := &model.Product{
		ID:          id,
		Name:        "Test Product",
		Slug:        "test-" + id.String()[:8],
		Price:       decimal.RequireFromString("50.00"),
		MaxQuantity: 2,
		Status:      model.ProductStatusActive,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, gormDB.Create(p).Error)
	return p
}

// SeedCards inserts n UNSOLD cards with strictly increasing creation times.
func SeedCards(t *testing.T, gormDB *gorm.DB, productID uuid.UUID, n int) []model.Card {
	t.Helper()

	base := time.Now().Add(-time.Hour)
	cards := make([]model.Card, n)
	for i := range cards {
		cards[i] = model.Card{
			ProductID: productID,
			Content:   fmt.Sprintf("CARD-%s-%03d", productID.String()[:8], i),
			Status:    model.CardStatusUnsold,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	require.NoError(t, gormDB.Create(&cards).Error)
	return cards
}

// Cards loads every card of a product.
func Cards(t *testing.T, gormDB *gorm.DB, productID uuid.UUID) []model.Card {
	t.Helper()

	var cards []model.Card
	require.NoError(t, gormDB.Where("product_id = ?", productID).Order("created_at ASC").Find(&cards).Error)
	return cards
}

// CountCards counts a product's cards in a status.
func CountCards(t *testing.T, gormDB *gorm.DB, productID uuid.UUID, status model.CardStatus) int64 {
	t.Helper()

	var n int64
	require.NoError(t, gormDB.Model(&model.Card{}).
		Where("product_id = ? AND status = ?", productID, status).Count(&n).Error)
	return n
}

// Order reloads an order.
func Order(t *testing.T, gormDB *gorm.DB, id uuid.UUID) *model.Order {
	t.Helper()

	var o model.Order
	require.NoError(t, gormDB.Where("id = ?", id).First(&o).Error)
	return &o
}

// CountOrders counts all orders.
func CountOrders(t *testing.T, gormDB *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, gormDB.Model(&model.Order{}).Count(&n).Error)
	return n
}

// AssertCardInvariant checks that order ownership matches card status for every card.
func AssertCardInvariant(t *testing.T, gormDB *gorm.DB) {
	t.Helper()

	var broken int64
	require.NoError(t, gormDB.Model(&model.Card{}).
		Where("(order_id IS NULL AND status <> ?) OR (order_id IS NOT NULL AND status = ?)",
			model.CardStatusUnsold, model.CardStatusUnsold).
		Count(&broken).Error)
	require.Zero(t, broken, "cards with mismatched order ownership and status")
}
