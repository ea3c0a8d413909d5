package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CardStatus represents where a card is in its sale lifecycle.
type CardStatus string

const (
	CardStatusUnsold   CardStatus = "UNSOLD"
	CardStatusReserved CardStatus = "RESERVED"
	CardStatusSold     CardStatus = "SOLD"
)

// Card is one unit of stock: an opaque secret delivered to the buyer.
// OrderID is set exactly when Status is RESERVED or SOLD.
type Card struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ProductID uuid.UUID  `json:"product_id" gorm:"type:char(36);not null;index:idx_cards_stock,priority:1"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	Status    CardStatus `json:"status" gorm:"type:varchar(20);not null;default:'UNSOLD';index:idx_cards_stock,priority:2"`
	OrderID   *uuid.UUID `json:"order_id,omitempty" gorm:"type:char(36);index"`
	BatchID   int64      `json:"batch_id,omitempty" gorm:"index"`
	CreatedAt time.Time  `json:"created_at" gorm:"index:idx_cards_stock,priority:3"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Card) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
