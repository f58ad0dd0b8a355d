// Package events publishes order domain events to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultItemAddedTopic is the Kafka topic ItemAdded events are written to
// when none is configured.
const DefaultItemAddedTopic = "OrderItemAdded"

// ItemAdded is emitted after an item has been committed to an order.
type ItemAdded struct {
	OrderID     uint            `json:"order_id"`
	ItemID      uint            `json:"item_id"`
	ProductID   uint            `json:"product_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	OrderTotal  decimal.Decimal `json:"order_total"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Publisher delivers order events.
type Publisher interface {
	PublishItemAdded(ctx context.Context, event ItemAdded) error
	Close() error
}

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishItemAdded(context.Context, ItemAdded) error { return nil }

func (NopPublisher) Close() error { return nil }
