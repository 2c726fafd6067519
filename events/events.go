// Package events publishes order lifecycle events to Kafka.
package events

import (
	"encoding/json"
	"time"
)

const (
	TopicOrders = "shop.orders"

	EventOrderPaid      = "OrderPaid"
	EventOrderDelivered = "OrderDelivered"
	EventOrderCancelled = "OrderCancelled"
	EventRefundFailed   = "RefundFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// OrderPayload is carried by every order event.
type OrderPayload struct {
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id"`
	Owner       string `json:"owner"`
	Status      string `json:"status"`
	TotalCents  int64  `json:"total_cents"`
	BuyerEmail  string `json:"buyer_email,omitempty"`
	RefundState string `json:"refund_state,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// UnwrapPayload decodes the payload of an envelope.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	err := json.Unmarshal(payload, &t)
	return t, err
}
