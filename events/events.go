package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeRequestStatusChanged = "restaurant.request.status_changed"
	TypeOrderPlaced          = "order.placed"
	TypeOrderAccepted        = "order.accepted"
)

// Event is a domain notification published after the owning transaction commits.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType, key string, payload any) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

// RequestStatusChanged is the payload of TypeRequestStatusChanged.
type RequestStatusChanged struct {
	RequestID    uint   `json:"request_id"`
	RestaurantID uint   `json:"restaurant_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Reason       string `json:"reason,omitempty"`
	ChangedBy    uint   `json:"changed_by"`
}

// OrderChanged is the payload of TypeOrderPlaced and TypeOrderAccepted.
type OrderChanged struct {
	OrderID      uint    `json:"order_id"`
	RestaurantID uint    `json:"restaurant_id"`
	CustomerID   uint    `json:"customer_id"`
	Status       string  `json:"status"`
	TotalPrice   float64 `json:"total_price"`
}

func RestaurantKey(id uint) string { return fmt.Sprintf("restaurant:%d", id) }

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

// publishBatchTimeout bounds how long a synchronous write waits for more
// messages to batch with. Publishing happens on the request path.
const publishBatchTimeout = 10 * time.Millisecond

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           publishBatchTimeout,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(e.Key),
		Value:   payload,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
