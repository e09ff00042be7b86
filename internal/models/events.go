package models

import "time"

// Event types on the order event stream. Confirmed and cancelled are
// published by this service; completed is published by the kitchen side and
// consumed here.
const (
	EventTypeOrderConfirmed = "ORDER_CONFIRMED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
	EventTypeOrderCompleted = "ORDER_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderConfirmedEvent published when a checkout completes
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID string     `json:"order_id"`
	Room    string     `json:"room"`
	Total   float64    `json:"total"`
	Items   []LineItem `json:"items"`
}

// OrderCancelledEvent published when a customer cancels inside the window
type OrderCancelledEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	Room    string `json:"room"`
	Reason  string `json:"reason"`
}

// OrderCompletedEvent published by the kitchen when an order is ready
type OrderCompletedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	Room    string `json:"room"`
}
