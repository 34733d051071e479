// Package events carries storefront events over Kafka: placed orders are
// produced, catalog changes are consumed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const EventTypeOrderPlaced = "OrderPlaced"

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPlacedEvent is the payload published for every placed order.
type OrderPlacedEvent struct {
	OrderID        string             `json:"order_id"`
	Name           string             `json:"name"`
	Owner          string             `json:"owner"`
	Items          []domain.OrderItem `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DeliveryOption string             `json:"delivery_option"`
	DeliveryPrice  decimal.Decimal    `json:"delivery_price"`
	PromoCode      string             `json:"promo_code,omitempty"`
	Discount       decimal.Decimal    `json:"discount"`
	Total          decimal.Decimal    `json:"total"`
	CreatedAt      time.Time          `json:"created_at"`
}

func NewOrderPlacedEvent(o *domain.Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:        o.ID.String(),
		Name:           o.Name,
		Owner:          o.Owner,
		Items:          o.Items,
		Subtotal:       o.Subtotal,
		DeliveryOption: o.DeliveryOption,
		DeliveryPrice:  o.DeliveryPrice,
		PromoCode:      o.PromoCode,
		Discount:       o.Discount,
		Total:          o.Total,
		CreatedAt:      o.CreatedAt,
	}
}

type OrderPublisher struct {
	writer MessageWriter
}

// orderBatchTimeout bounds how long a synchronous order write waits for more
// messages before flushing.
const orderBatchTimeout = 10 * time.Millisecond

func NewOrderWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           orderBatchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func NewOrderPublisher(writer MessageWriter) *OrderPublisher {
	return &OrderPublisher{writer: writer}
}

func (p *OrderPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(NewOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.Owner), // owner for per-customer ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderPlaced)},
			{Key: "order_id", Value: []byte(order.ID.String())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order %s: %w", order.ID, err)
	}
	return nil
}

func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
