package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RestockStatus represents whether a subscriber has been told about new stock.
type RestockStatus string

const (
	RestockStatusPending  RestockStatus = "PENDING"
	RestockStatusNotified RestockStatus = "NOTIFIED"
)

// RestockSubscription asks to be notified when an out of stock product gets cards again.
type RestockSubscription struct {
	ID         uuid.UUID     `json:"id" gorm:"type:char(36);primaryKey"`
	ProductID  uuid.UUID     `json:"product_id" gorm:"type:char(36);not null;uniqueIndex:idx_restock_product_email,priority:1"`
	Email      string        `json:"email" gorm:"size:191;not null;uniqueIndex:idx_restock_product_email,priority:2"`
	ClientIP   *string       `json:"client_ip,omitempty" gorm:"size:64"`
	Status     RestockStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	NotifiedAt *time.Time    `json:"notified_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (r *RestockSubscription) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
