package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEvent is the record published for each placed order
type OrderEvent struct {
	Type        string          `json:"type"`
	OrderID     int64           `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      *int64          `json:"userId,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []EventLine     `json:"items"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// EventLine is one order line in an OrderEvent
type EventLine struct {
	VariantID *int64 `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// KafkaPublisher publishes order events for downstream consumers such as
// fulfilment and analytics
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
	}}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, ev OrderPlaced) error {
	event := OrderEvent{
		Type:        "order.placed",
		OrderID:     ev.Order.ID,
		OrderNumber: ev.Order.OrderNumber,
		UserID:      ev.Order.UserID,
		TotalAmount: ev.Order.TotalAmount,
		Items:       make([]EventLine, 0, len(ev.Order.Items)),
		CreatedAt:   ev.Order.CreatedAt,
	}
	for _, l := range ev.Order.Items {
		event.Items = append(event.Items, EventLine{VariantID: l.VariantID, Quantity: l.Quantity})
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Order.OrderNumber), Value: data}); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// VerificationRequested is not published; verification tokens stay out of the event log
func (p *KafkaPublisher) VerificationRequested(context.Context, Verification) error {
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
