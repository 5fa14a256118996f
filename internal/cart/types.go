package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-storefront-checkout/internal/analytics"
)

// LineItem is one product/quantity pair in the cart. It is also the JSON
// shape persisted in the cart slot.
type LineItem struct {
	ID           string          `json:"id"`
	ItemNumber   string          `json:"itemNumber,omitempty"`
	Name         string          `json:"name"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	Price        decimal.Decimal `json:"price"`
	DisplayPrice string          `json:"displayPrice"`
	Quantity     int             `json:"quantity"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	Category     string          `json:"category,omitempty"`
}

// UnitPrice implements pricing.Line.
func (l LineItem) UnitPrice() decimal.Decimal { return l.Price }

// Units implements pricing.Line.
func (l LineItem) Units() int { return l.Quantity }

func (l LineItem) matches(key string) bool {
	return key != "" && (l.ID == key || l.ItemNumber == key)
}

// Product is what a shopper adds to the cart. Only Name is expected;
// every other field has a default:
//   - ID falls back to ItemNumber, then to a generated id
//   - Price falls back to 0
//   - DisplayPrice falls back to "$<price>"
type Product struct {
	ID           string           `json:"id"`
	ItemNumber   string           `json:"itemNumber"`
	Name         string           `json:"name"`
	ImageURL     string           `json:"imageUrl"`
	Price        *decimal.Decimal `json:"price"`
	DisplayPrice string           `json:"displayPrice"`
	Manufacturer string           `json:"manufacturer"`
	Category     string           `json:"category"`
}

// ErrSlotEmpty is returned by a Slot when nothing is persisted under the key.
var ErrSlotEmpty = errors.New("cart slot empty")

// Slot is the durable key-value slot holding a serialized cart.
type Slot interface {
	Load(ctx context.Context, cartID string) ([]byte, error)
	Save(ctx context.Context, cartID string, data []byte) error
	Delete(ctx context.Context, cartID string) error
}

// Tracker receives cart analytics events.
type Tracker interface {
	Track(ctx context.Context, ev analytics.Event) error
}
