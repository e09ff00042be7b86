package models

import (
	"fmt"
	"math/rand"
	"time"
)

// LineItem is one product variant plus quantity and optional modifiers.
// Two line items are the same cart entry when both name and size match.
type LineItem struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Price    float64  `json:"price"`
	Size     string   `json:"size,omitempty"`
	Addons   []string `json:"addons,omitempty"`
}

// SameVariant reports whether two items refer to the same (name, size) entry.
func (li LineItem) SameVariant(other LineItem) bool {
	return li.Name == other.Name && li.Size == other.Size
}

// OrderRecord is the persisted result of a completed checkout.
type OrderRecord struct {
	OrderID   string     `json:"orderId"`
	Status    string     `json:"status"`
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	Timestamp time.Time  `json:"timestamp"`
}

// Order statuses. An order leaves in_progress either by a time-gated
// cancellation or when the kitchen reports it completed.
const (
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// NewOrderID mints an order identifier in the ORD-<unix_ms>-<0..9999> format.
func NewOrderID() string {
	return fmt.Sprintf("ORD-%d-%d", time.Now().UnixMilli(), rand.Intn(10000))
}

// NewGuestIdentity generates an ephemeral per-session participant identity.
func NewGuestIdentity() string {
	return fmt.Sprintf("guest-%d", rand.Intn(10000))
}
