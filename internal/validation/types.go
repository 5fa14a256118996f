package validation

import (
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
)

// Payment methods accepted by POST /checkout.
const (
	PaymentMethodStripe  = "stripe"
	PaymentMethodInvoice = "invoice"
)

// CheckoutItem is one cart line as sent to the checkout endpoint.
type CheckoutItem struct {
	Name         string          `json:"name" validate:"required"`
	Price        decimal.Decimal `json:"price"`                              // unit price in AUD, checked >= 0 at struct level
	Quantity     int             `json:"quantity" validate:"required,min=1"` // must be >= 1
	Description  string          `json:"description,omitempty"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	ImageURL     string          `json:"imageUrl,omitempty"`
}

// UnitPrice implements pricing.Line.
func (i CheckoutItem) UnitPrice() decimal.Decimal { return i.Price }

// Units implements pricing.Line.
func (i CheckoutItem) Units() int { return i.Quantity }

// CustomerDetails carries optional contact data used when a customer is created.
type CustomerDetails struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ShippingAddress is an Australian delivery address.
type ShippingAddress struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required,numeric,len=4"`
	Country    string `json:"country,omitempty"` // defaults to AU; anything else is rejected
}

// CheckoutRequest is the payload for POST /checkout.
type CheckoutRequest struct {
	CartItems        []CheckoutItem   `json:"cartItems" validate:"required,min=1,dive"`
	SuccessURL       string           `json:"successUrl" validate:"required"`
	CancelURL        string           `json:"cancelUrl" validate:"required"`
	CustomerEmail    string           `json:"customerEmail,omitempty" validate:"omitempty,email"`
	StripeCustomerID string           `json:"stripeCustomerId,omitempty"`
	PaymentMethod    string           `json:"paymentMethod,omitempty" validate:"omitempty,oneof=stripe invoice"`
	CustomerDetails  CustomerDetails  `json:"customerDetails"`
	ShippingAddress  *ShippingAddress `json:"shippingAddress,omitempty"`
}

// Method returns the payment method, defaulting to stripe.
func (r CheckoutRequest) Method() string {
	if r.PaymentMethod == "" {
		return PaymentMethodStripe
	}
	return r.PaymentMethod
}

// AddItemRequest is the payload for POST /carts/:cartId/items.
// The product itself is never rejected; missing fields take defaults.
type AddItemRequest struct {
	Product  cart.Product `json:"product"`
	Quantity int          `json:"quantity" validate:"omitempty,min=1"`
}

// UpdateQuantityRequest is the payload for PATCH /carts/:cartId/items/:itemId.
// Zero or negative quantities remove the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}
