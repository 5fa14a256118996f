package checkout

import (
	"context"

	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// Provider is the payment provider surface the builder needs. Calls are
// made one at a time, in order, and never retried.
type Provider interface {
	// FindCustomerByEmail returns the id of the first customer with email,
	// or "" when none exists.
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	CreateCustomer(ctx context.Context, c Customer) (string, error)
	CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error)
	CreateDraftInvoice(ctx context.Context, p DraftInvoice) (string, error)
	AddInvoiceLine(ctx context.Context, line InvoiceLine) error
	FinalizeInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
}

// Customer is the data sent when creating a provider customer.
type Customer struct {
	Email   string
	Name    string
	Phone   string
	Address *validation.ShippingAddress
}

// SessionLine is one priced line of a hosted checkout session.
type SessionLine struct {
	Name        string
	Description string
	ImageURL    string
	Currency    string
	UnitAmount  int64 // minor units
	Quantity    int64
}

// SessionParams describes a payment-mode checkout session. Exactly one of
// CustomerID or CustomerEmail is set. A nil ShippingCountries means the
// provider must not collect a shipping address.
type SessionParams struct {
	Lines             []SessionLine
	SuccessURL        string
	CancelURL         string
	CustomerID        string
	CustomerEmail     string
	ShippingCountries []string
	Metadata          map[string]string
}

// Session is the hosted page the shopper is redirected to.
type Session struct {
	ID  string
	URL string
}

// DraftInvoice opens an invoice that is sent to the customer for payment.
type DraftInvoice struct {
	CustomerID   string
	Currency     string
	DaysUntilDue int64
	Metadata     map[string]string
}

// InvoiceLine is attached to a draft invoice before it is finalized.
type InvoiceLine struct {
	CustomerID  string
	InvoiceID   string
	Description string
	Currency    string
	Amount      int64 // minor units, already multiplied by quantity
}

// Invoice is a finalized invoice.
type Invoice struct {
	ID        string
	HostedURL string
}
