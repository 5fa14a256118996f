// Package payments adapts Stripe to the checkout.Provider interface.
package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/invoice"
	"github.com/stripe/stripe-go/v83/invoiceitem"

	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// Stripe implements checkout.Provider. Each resource client carries its own
// key, so no package-level stripe.Key is needed.
type Stripe struct {
	customers    customer.Client
	sessions     session.Client
	invoices     invoice.Client
	invoiceItems invoiceitem.Client
}

var _ checkout.Provider = (*Stripe)(nil)

// NewStripe returns a provider for secretKey, or nil when the key is empty
// so the checkout builder reports the provider as not configured.
func NewStripe(secretKey string) *Stripe {
	if secretKey == "" {
		return nil
	}
	backend := stripe.GetBackend(stripe.APIBackend)
	return &Stripe{
		customers:    customer.Client{B: backend, Key: secretKey},
		sessions:     session.Client{B: backend, Key: secretKey},
		invoices:     invoice.Client{B: backend, Key: secretKey},
		invoiceItems: invoiceitem.Client{B: backend, Key: secretKey},
	}
}

// FindCustomerByEmail returns the first customer with email, or "" when none exists.
func (s *Stripe) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := s.customers.List(params)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list customers: %w", err)
	}
	return "", nil
}

// CreateCustomer creates a customer and returns its id.
func (s *Stripe) CreateCustomer(ctx context.Context, c checkout.Customer) (string, error) {
	cus, err := s.customers.New(customerParams(ctx, c))
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cus.ID, nil
}

// CreateCheckoutSession creates a hosted payment-mode checkout session.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, p checkout.SessionParams) (*checkout.Session, error) {
	sess, err := s.sessions.New(sessionParams(ctx, p))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}

// CreateDraftInvoice creates a send_invoice draft that ignores pending invoice items.
func (s *Stripe) CreateDraftInvoice(ctx context.Context, p checkout.DraftInvoice) (string, error) {
	params := &stripe.InvoiceParams{
		Customer:                    stripe.String(p.CustomerID),
		CollectionMethod:            stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:                stripe.Int64(p.DaysUntilDue),
		Currency:                    stripe.String(p.Currency),
		PendingInvoiceItemsBehavior: stripe.String("exclude"),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	inv, err := s.invoices.New(params)
	if err != nil {
		return "", fmt.Errorf("create invoice: %w", err)
	}
	return inv.ID, nil
}

// AddInvoiceLine attaches one invoice item to the draft.
func (s *Stripe) AddInvoiceLine(ctx context.Context, line checkout.InvoiceLine) error {
	params := &stripe.InvoiceItemParams{
		Customer:    stripe.String(line.CustomerID),
		Invoice:     stripe.String(line.InvoiceID),
		Amount:      stripe.Int64(line.Amount),
		Currency:    stripe.String(line.Currency),
		Description: stripe.String(line.Description),
	}
	params.Context = ctx

	if _, err := s.invoiceItems.New(params); err != nil {
		return fmt.Errorf("create invoice item: %w", err)
	}
	return nil
}

// FinalizeInvoice finalizes the draft and returns its hosted URL.
func (s *Stripe) FinalizeInvoice(ctx context.Context, invoiceID string) (*checkout.Invoice, error) {
	params := &stripe.InvoiceFinalizeInvoiceParams{}
	params.Context = ctx

	inv, err := s.invoices.FinalizeInvoice(invoiceID, params)
	if err != nil {
		return nil, fmt.Errorf("finalize invoice: %w", err)
	}
	return &checkout.Invoice{ID: inv.ID, HostedURL: inv.HostedInvoiceURL}, nil
}

func customerParams(ctx context.Context, c checkout.Customer) *stripe.CustomerParams {
	params := &stripe.CustomerParams{Email: stripe.String(c.Email)}
	params.Context = ctx
	if c.Name != "" {
		params.Name = stripe.String(c.Name)
	}
	if c.Phone != "" {
		params.Phone = stripe.String(c.Phone)
	}
	if c.Address != nil {
		addr := addressParams(c.Address)
		params.Address = addr
		params.Shipping = &stripe.CustomerShippingParams{
			Address: addressParams(c.Address),
			Name:    stripe.String(shippingName(c)),
		}
		if c.Phone != "" {
			params.Shipping.Phone = stripe.String(c.Phone)
		}
	}
	return params
}

func sessionParams(ctx context.Context, p checkout.SessionParams) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx

	for _, l := range p.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Name),
		}
		if l.Description != "" {
			product.Description = stripe.String(l.Description)
		}
		if l.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{l.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(l.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if p.ShippingCountries != nil {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(p.ShippingCountries),
		}
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func addressParams(a *validation.ShippingAddress) *stripe.AddressParams {
	country := strings.ToUpper(a.Country)
	if country == "" {
		country = "AU"
	}
	params := &stripe.AddressParams{
		Line1:      stripe.String(a.Line1),
		City:       stripe.String(a.City),
		PostalCode: stripe.String(a.PostalCode),
		Country:    stripe.String(country),
	}
	if a.Line2 != "" {
		params.Line2 = stripe.String(a.Line2)
	}
	if a.State != "" {
		params.State = stripe.String(a.State)
	}
	return params
}

func shippingName(c checkout.Customer) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}
