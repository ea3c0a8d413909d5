package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes events to the log. Used when no broker is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOrderCompleted(_ context.Context, event OrderCompletedEvent) error {
	s.logger.Info("order completed notification",
		zap.String("order_no", event.OrderNo),
		zap.String("email", event.Email),
		zap.Int("quantity", event.Quantity),
	)
	return nil
}

func (s *LogSender) SendRestock(_ context.Context, event RestockEvent) error {
	s.logger.Info("restock notification",
		zap.String("product_id", event.ProductID.String()),
		zap.Int("recipients", len(event.Emails)),
	)
	return nil
}

func (s *LogSender) Close() error { return nil }
