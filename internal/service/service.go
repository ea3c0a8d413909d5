package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"cardshop/internal/model"
	"cardshop/internal/payment"
)

// Notifier schedules buyer notifications. Both calls return immediately.
type Notifier interface {
	OrderCompleted(orderID uuid.UUID)
	RestockAvailable(product *model.Product, subs []model.RestockSubscription)
}

// GatewayRegistry resolves payment providers.
type GatewayRegistry interface {
	Default() payment.Gateway
	Get(name string) (payment.Gateway, bool)
}

// Clock returns the current time. Tests replace it to move across the expiry boundary.
type Clock func() time.Time

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func noopNotifier() Notifier { return nopNotifier{} }

type nopNotifier struct{}

func (nopNotifier) OrderCompleted(uuid.UUID)                                   {}
func (nopNotifier) RestockAvailable(*model.Product, []model.RestockSubscription) {}
