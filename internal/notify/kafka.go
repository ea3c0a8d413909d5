package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

type envelope struct {
	Type string      `json:"type"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes notification events for the mailer to consume.
type KafkaSender struct {
	w messageWriter
}

// NewKafkaSender creates a synchronous writer. Events of one order or product share a key and a partition.
func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (s *KafkaSender) SendOrderCompleted(ctx context.Context, event OrderCompletedEvent) error {
	return s.publish(ctx, EventOrderCompleted, event.OrderNo, event)
}

func (s *KafkaSender) SendRestock(ctx context.Context, event RestockEvent) error {
	return s.publish(ctx, EventRestockAvailable, event.ProductID.String(), event)
}

func (s *KafkaSender) publish(ctx context.Context, eventType, key string, data interface{}) error {
	b, err := json.Marshal(envelope{Type: eventType, At: time.Now().UTC(), Data: data})
	if err != nil {
		return err
	}
	return s.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   b,
		Headers: []kafka.Header{{Key: "type", Value: []byte(eventType)}},
	})
}

// Close flushes and releases the writer.
func (s *KafkaSender) Close() error { return s.w.Close() }
