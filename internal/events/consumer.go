package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CatalogChangedEvent announces a product that was created, edited or
// removed. ProductID 0 means the whole catalog changed.
type CatalogChangedEvent struct {
	ProductID  int64    `json:"product_id"`
	Category   string   `json:"category,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Invalidator drops cached catalog reads touched by a change.
type Invalidator interface {
	ProductChanged(ctx context.Context, id int64, categories ...string) error
}

type CatalogConsumer struct {
	reader      MessageReader
	invalidator Invalidator
	log         *zap.Logger
}

func NewCatalogReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewCatalogConsumer(reader MessageReader, invalidator Invalidator, log *zap.Logger) *CatalogConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogConsumer{reader: reader, invalidator: invalidator, log: log}
}

// Run consumes until ctx is done. Malformed events are logged and skipped.
func (c *CatalogConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.processMessage(ctx)
		if errors.Is(err, io.EOF) {
			return // reader closed
		}
		if err != nil && ctx.Err() == nil {
			c.log.Warn("failed to process catalog event", zap.Error(err))
		}
	}
}

func (c *CatalogConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing kafka reader", zap.Error(err))
	}
}

func (c *CatalogConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("error reading message: %w", err)
	}

	var event CatalogChangedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("error parsing message at offset %d: %w", m.Offset, err)
	}
	if event.ProductID < 0 {
		return fmt.Errorf("invalid product_id %d at offset %d", event.ProductID, m.Offset)
	}

	categories := event.Categories
	if event.Category != "" {
		categories = append(categories, event.Category)
	}
	if err := c.invalidator.ProductChanged(ctx, event.ProductID, categories...); err != nil {
		return fmt.Errorf("failed to invalidate product %d: %w", event.ProductID, err)
	}

	c.log.Debug("catalog change applied",
		zap.Int64("product_id", event.ProductID),
		zap.Strings("categories", categories))
	return nil
}
