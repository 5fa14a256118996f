package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types emitted by the cart.
const (
	EventAddToCart      = "add_to_cart"
	EventRemoveFromCart = "remove_from_cart"
)

// Event is the payload published to the analytics queue and consumed by the worker.
type Event struct {
	Type       string          `json:"type"`
	CartID     string          `json:"cart_id"`
	ItemID     string          `json:"item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Category   string          `json:"category,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
