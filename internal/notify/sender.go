// Package notify delivers buyer notifications off the request path.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardshop/internal/config"
)

// Event types published to the transport.
const (
	EventOrderCompleted   = "order.completed"
	EventRestockAvailable = "restock.available"
)

// OrderCompletedEvent tells a buyer their cards are ready.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID  `json:"order_id"`
	OrderNo     string     `json:"order_no"`
	Email       string     `json:"email"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	Amount      string     `json:"amount"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// RestockEvent tells subscribers a product is back in stock.
type RestockEvent struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Slug        string    `json:"slug"`
	Emails      []string  `json:"emails"`
}

// Sender delivers notification events.
type Sender interface {
	SendOrderCompleted(ctx context.Context, event OrderCompletedEvent) error
	SendRestock(ctx context.Context, event RestockEvent) error
	Close() error
}

// NewSender returns a kafka sender when brokers are configured and a log sender otherwise.
func NewSender(cfg *config.Config, logger *zap.Logger) Sender {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("no kafka brokers configured, notifications are logged only")
		return NewLogSender(logger)
	}
	return NewKafkaSender(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}
