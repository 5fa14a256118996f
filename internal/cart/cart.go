// Package cart implements the shopper's cart: line items, derived totals and
// whole-cart persistence into a Slot.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/analytics"
	"github.com/imrishuroy/go-storefront-checkout/internal/pricing"
)

// Cart is the aggregate for a single cart id. It is not safe for concurrent
// use; callers load one per request.
type Cart struct {
	id      string
	items   []LineItem
	slot    Slot
	tracker Tracker
	log     *zap.Logger
	nowFunc func() time.Time
	newID   func() string
}

// Load reads the cart persisted under id. A missing, unreadable or corrupt
// slot yields an empty cart; the failure is logged and never returned.
func Load(ctx context.Context, id string, slot Slot, tracker Tracker, logger *zap.Logger) *Cart {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cart{
		id:      id,
		slot:    slot,
		tracker: tracker,
		log:     logger.With(zap.String("cart_id", id)),
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}

	data, err := slot.Load(ctx, id)
	switch {
	case errors.Is(err, ErrSlotEmpty):
		return c
	case err != nil:
		c.log.Warn("failed to read cart slot, starting empty", zap.Error(err))
		return c
	}

	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		c.log.Warn("corrupt cart slot, starting empty", zap.Error(err))
		return c
	}
	c.items = items
	return c
}

// ID returns the cart's persistence key.
func (c *Cart) ID() string { return c.id }

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// AddItem adds quantity units of p. A line matching p's id or item number
// is incremented; otherwise a new line is appended. Quantities below 1
// count as 1.
func (c *Cart) AddItem(ctx context.Context, p Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	idx := c.indexOf(p.ID)
	if idx < 0 {
		idx = c.indexOf(p.ItemNumber)
	}

	var line LineItem
	if idx >= 0 {
		c.items[idx].Quantity += quantity
		line = c.items[idx]
	} else {
		line = c.lineFromProduct(p, quantity)
		c.items = append(c.items, line)
	}

	c.track(ctx, analytics.EventAddToCart, line, quantity)
	return c.persist(ctx)
}

// RemoveItem drops the line whose id or item number equals itemID.
// Removing an unknown item is a no-op.
func (c *Cart) RemoveItem(ctx context.Context, itemID string) error {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return nil
	}
	line := c.items[idx]
	c.items = append(c.items[:idx], c.items[idx+1:]...)

	c.track(ctx, analytics.EventRemoveFromCart, line, line.Quantity)
	return c.persist(ctx)
}

// UpdateQuantity sets the quantity of a line exactly. Zero or negative
// quantities remove the line.
func (c *Cart) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, itemID)
	}
	idx := c.indexOf(itemID)
	if idx < 0 {
		return nil
	}
	c.items[idx].Quantity = quantity
	return c.persist(ctx)
}

// Clear empties the cart and erases its persisted state.
func (c *Cart) Clear(ctx context.Context) error {
	c.items = nil
	if err := c.slot.Delete(ctx, c.id); err != nil {
		return fmt.Errorf("clear cart %s: %w", c.id, err)
	}
	return nil
}

// Subtotal is Σ(price × quantity).
func (c *Cart) Subtotal() decimal.Decimal {
	return pricing.Subtotal(c.items)
}

// Totals is the cart's display breakdown, including flat shipping.
func (c *Cart) Totals() pricing.Totals {
	return pricing.CartTotals(c.items)
}

// Total is subtotal + flat shipping + GST.
func (c *Cart) Total() decimal.Decimal {
	return c.Totals().Total
}

// ItemCount is Σ(quantity).
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.items {
		n += l.Quantity
	}
	return n
}

func (c *Cart) indexOf(key string) int {
	for i, l := range c.items {
		if l.matches(key) {
			return i
		}
	}
	return -1
}

func (c *Cart) lineFromProduct(p Product, quantity int) LineItem {
	price := decimal.Zero
	if p.Price != nil {
		price = *p.Price
	}
	display := p.DisplayPrice
	if display == "" {
		display = "$" + price.String()
	}
	id := p.ID
	if id == "" {
		id = p.ItemNumber
	}
	if id == "" {
		id = c.newID()
	}
	return LineItem{
		ID:           id,
		ItemNumber:   p.ItemNumber,
		Name:         p.Name,
		ImageURL:     p.ImageURL,
		Price:        price,
		DisplayPrice: display,
		Quantity:     quantity,
		Manufacturer: p.Manufacturer,
		Category:     p.Category,
	}
}

func (c *Cart) persist(ctx context.Context) error {
	items := c.items
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := c.slot.Save(ctx, c.id, data); err != nil {
		return fmt.Errorf("save cart %s: %w", c.id, err)
	}
	return nil
}

// track never fails the mutation; analytics is best effort.
func (c *Cart) track(ctx context.Context, eventType string, line LineItem, quantity int) {
	if c.tracker == nil {
		return
	}
	ev := analytics.Event{
		Type:       eventType,
		CartID:     c.id,
		ItemID:     line.ID,
		Name:       line.Name,
		Price:      line.Price,
		Quantity:   quantity,
		Category:   line.Category,
		OccurredAt: c.nowFunc().UTC(),
	}
	if err := c.tracker.Track(ctx, ev); err != nil {
		c.log.Warn("analytics event dropped", zap.String("event", eventType), zap.Error(err))
	}
}
