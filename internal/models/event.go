package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a storefront event published to Kafka.
type EventType string

const (
	EventTypeOrderPlaced      EventType = "order.placed"
	EventTypePaymentSucceeded EventType = "payment.succeeded"
	EventTypePaymentFailed    EventType = "payment.failed"
	EventTypeChargeRefunded   EventType = "charge.refunded"
	EventTypeProductChanged   EventType = "product.changed"
)

// Event is the envelope of every message on the storefront topics.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
