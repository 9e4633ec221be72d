package events

import (
	"context"
	"time"
)

// Publisher emits storefront activity events for downstream consumers
// (analytics, recommendations). Publishing is strictly fire-and-forget:
// a failure must never affect view state.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// SearchPerformed is emitted when a shopper commits a filtered search.
type SearchPerformed struct {
	Category   string              `json:"category"`
	Brand      string              `json:"brand,omitempty"`
	Attributes map[string][]string `json:"attributes,omitempty"`
	At         time.Time           `json:"at"`
}

// OrderSubmitted is emitted after the order service accepts an order.
type OrderSubmitted struct {
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id,omitempty"`
	Subtotal      int       `json:"subtotal"`
	Discount      int       `json:"discount"`
	FinalTotal    int       `json:"final_total"`
	PromotionCode string    `json:"promotion_code,omitempty"`
	At            time.Time `json:"at"`
}
