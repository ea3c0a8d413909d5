package notify

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"cardshop/internal/metrics"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

// Dispatcher runs notification sends as detached background tasks.
// Callers never wait on a send and never see its error.
type Dispatcher struct {
	store   repository.Store
	sender  Sender
	logger  *zap.Logger
	timeout time.Duration

	wg     conc.WaitGroup
	closed atomic.Bool
}

// NewDispatcher creates a dispatcher. Each send gets its own timeout detached from the request.
func NewDispatcher(store repository.Store, sender Sender, logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{store: store, sender: sender, logger: logger, timeout: timeout}
}

// OrderCompleted schedules the completion notification for an order.
func (d *Dispatcher) OrderCompleted(orderID uuid.UUID) {
	d.spawn("order_completed", func(ctx context.Context) error {
		order, err := d.store.Orders().FindWithDetails(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order %s: %w", orderID, err)
		}

		event := OrderCompletedEvent{
			OrderID:  order.ID,
			OrderNo:  order.OrderNo,
			Email:    order.Email,
			Quantity: order.Quantity,
			Amount:   order.Amount.StringFixed(2),
			PaidAt:   order.PaidAt,
		}
		if order.Product != nil {
			event.ProductName = order.Product.Name
		}
		return d.sender.SendOrderCompleted(ctx, event)
	})
}

// RestockAvailable schedules one restock notification for a set of subscribers.
func (d *Dispatcher) RestockAvailable(product *model.Product, subs []model.RestockSubscription) {
	if len(subs) == 0 {
		return
	}
	event := RestockEvent{
		ProductID:   product.ID,
		ProductName: product.Name,
		Slug:        product.Slug,
		Emails:      make([]string, 0, len(subs)),
	}
	for _, sub := range subs {
		event.Emails = append(event.Emails, sub.Email)
	}
	d.spawn("restock", func(ctx context.Context) error {
		return d.sender.SendRestock(ctx, event)
	})
}

func (d *Dispatcher) spawn(kind string, task func(ctx context.Context) error) {
	if d.closed.Load() {
		d.logger.Warn("dispatcher closed, dropping notification", zap.String("kind", kind))
		metrics.NotificationsFailed.WithLabelValues(kind).Inc()
		return
	}

	d.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		var catcher panics.Catcher
		var err error
		catcher.Try(func() { err = task(ctx) })
		if r := catcher.Recovered(); r != nil {
			err = r.AsError()
		}
		if err != nil {
			metrics.NotificationsFailed.WithLabelValues(kind).Inc()
			d.logger.Warn("notification failed", zap.String("kind", kind), zap.Error(err))
		}
	})
}

// Close stops accepting work and waits for in-flight sends until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closed.Store(true)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("wait for notifications: %w", ctx.Err())
	}
	if closeErr := d.sender.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
