package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusClosed    OrderStatus = "CLOSED"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:   {OrderStatusCompleted: true, OrderStatusClosed: true},
	OrderStatusCompleted: {},
	OrderStatusClosed:    {},
}

// CanTransition reports whether from may move to to. Same-state moves are not transitions.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Order claims Quantity cards of one product for a buyer.
type Order struct {
	ID           uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	OrderNo      string          `json:"order_no" gorm:"uniqueIndex;size:64;not null"`
	ProductID    uuid.UUID       `json:"product_id" gorm:"type:char(36);not null;index"`
	Email        string          `json:"email" gorm:"size:255;not null;index"`
	PasswordHash string          `json:"-" gorm:"size:255;not null"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Status       OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index:idx_orders_status_created,priority:1"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	ClientIP     *string         `json:"client_ip,omitempty" gorm:"size:64;index"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index:idx_orders_status_created,priority:2"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Relations
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Cards   []Card   `json:"cards,omitempty" gorm:"foreignKey:OrderID"`
}

// BeforeCreate sets UUID before creating the record.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
