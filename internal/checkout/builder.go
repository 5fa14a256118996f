// Package checkout turns cart lines into a payment provider request: either a
// hosted card checkout session or a finalized invoice.
package checkout

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/pricing"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// InvoiceDaysUntilDue is the payment term for invoice checkouts.
const InvoiceDaysUntilDue = 30

// ShippingCountries restricts hosted address collection.
var ShippingCountries = []string{"AU"}

// Result is the outcome of a checkout. Card checkouts fill URL and
// SessionID; invoice checkouts fill the remaining fields.
type Result struct {
	URL       string `json:"url,omitempty"`
	SessionID string `json:"sessionId,omitempty"`

	Success    bool   `json:"success,omitempty"`
	InvoiceID  string `json:"invoiceId,omitempty"`
	InvoiceURL string `json:"invoiceUrl,omitempty"`
	Message    string `json:"message,omitempty"`

	Totals pricing.Totals `json:"-"`
}

// Builder creates checkout sessions and invoices.
type Builder struct {
	provider Provider
	validate *validatorv10.Validate
	log      *zap.Logger
}

// NewBuilder returns a Builder. A nil provider is allowed: every Create then
// fails with KindFailedPrecondition.
func NewBuilder(provider Provider, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		provider: provider,
		validate: validation.New(),
		log:      logger,
	}
}

// Create validates req and runs the provider calls for its payment method.
// Validation and configuration failures happen before any provider call.
func (b *Builder) Create(ctx context.Context, req validation.CheckoutRequest) (*Result, error) {
	if b.provider == nil {
		return nil, &Error{Kind: KindFailedPrecondition, Message: "payment provider is not configured"}
	}
	if len(req.CartItems) == 0 {
		return nil, invalidArgument("cart items are required", nil)
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		return nil, invalidArgument("success and cancel URLs are required", nil)
	}
	if err := b.validate.Struct(req); err != nil {
		return nil, invalidArgument(describe(err), err)
	}

	method := req.Method()
	if method == validation.PaymentMethodInvoice && req.StripeCustomerID == "" && req.CustomerEmail == "" {
		return nil, invalidArgument("invoice checkout requires a customer email or id", nil)
	}

	totals := pricing.CheckoutTotals(req.CartItems)
	log := b.log.With(
		zap.String("payment_method", method),
		zap.String("total", pricing.Format(totals.Total)),
		zap.Int("items", len(req.CartItems)),
	)

	customerID, err := b.resolveCustomer(ctx, req)
	if err != nil {
		log.Error("customer resolution failed", zap.Error(err))
		return nil, internalError(err)
	}

	var res *Result
	if method == validation.PaymentMethodInvoice {
		res, err = b.createInvoice(ctx, req, customerID, totals)
	} else {
		res, err = b.createSession(ctx, req, customerID, totals)
	}
	if err != nil {
		log.Error("checkout failed", zap.String("customer_id", customerID), zap.Error(err))
		return nil, internalError(err)
	}
	res.Totals = totals

	log.Info("checkout created",
		zap.String("customer_id", customerID),
		zap.String("session_id", res.SessionID),
		zap.String("invoice_id", res.InvoiceID),
	)
	return res, nil
}

// resolveCustomer returns the provider customer for req. An explicit id wins;
// otherwise the first customer with the email is used, and one is created if
// none exists. Without an email the result is "".
func (b *Builder) resolveCustomer(ctx context.Context, req validation.CheckoutRequest) (string, error) {
	if req.StripeCustomerID != "" {
		return req.StripeCustomerID, nil
	}
	if req.CustomerEmail == "" {
		return "", nil
	}

	id, err := b.provider.FindCustomerByEmail(ctx, req.CustomerEmail)
	if err != nil {
		return "", fmt.Errorf("find customer: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id, err = b.provider.CreateCustomer(ctx, Customer{
		Email:   req.CustomerEmail,
		Name:    req.CustomerDetails.Name,
		Phone:   req.CustomerDetails.Phone,
		Address: req.ShippingAddress,
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return id, nil
}

func (b *Builder) createSession(ctx context.Context, req validation.CheckoutRequest, customerID string, totals pricing.Totals) (*Result, error) {
	lines := make([]SessionLine, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		desc := it.Description
		if desc == "" {
			desc = it.Manufacturer
		}
		lines = append(lines, SessionLine{
			Name:        it.Name,
			Description: desc,
			ImageURL:    it.ImageURL,
			Currency:    pricing.Currency,
			UnitAmount:  pricing.ToCents(it.Price),
			Quantity:    int64(it.Quantity),
		})
	}

	params := SessionParams{
		Lines:      lines,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata:   metadata(req, totals),
	}
	if customerID != "" {
		params.CustomerID = customerID
	} else {
		params.CustomerEmail = req.CustomerEmail
	}
	// A supplied address means there is nothing to collect.
	if req.ShippingAddress == nil {
		params.ShippingCountries = ShippingCountries
	}

	sess, err := b.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Result{URL: sess.URL, SessionID: sess.ID}, nil
}

func (b *Builder) createInvoice(ctx context.Context, req validation.CheckoutRequest, customerID string, totals pricing.Totals) (*Result, error) {
	invoiceID, err := b.provider.CreateDraftInvoice(ctx, DraftInvoice{
		CustomerID:   customerID,
		Currency:     pricing.Currency,
		DaysUntilDue: InvoiceDaysUntilDue,
		Metadata:     metadata(req, totals),
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	for _, it := range req.CartItems {
		line := InvoiceLine{
			CustomerID:  customerID,
			InvoiceID:   invoiceID,
			Description: invoiceDescription(it),
			Currency:    pricing.Currency,
			Amount:      pricing.ToCents(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))),
		}
		if err := b.provider.AddInvoiceLine(ctx, line); err != nil {
			return nil, fmt.Errorf("add invoice line %q: %w", it.Name, err)
		}
	}

	inv, err := b.provider.FinalizeInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("finalize invoice %s: %w", invoiceID, err)
	}

	return &Result{
		Success:    true,
		InvoiceID:  inv.ID,
		InvoiceURL: inv.HostedURL,
		Message:    fmt.Sprintf("Invoice created for %s AUD. Payment is due within %d days.", pricing.Format(totals.Total), InvoiceDaysUntilDue),
	}, nil
}

// invoiceDescription is "name - manufacturer - description" with empty parts dropped.
func invoiceDescription(it validation.CheckoutItem) string {
	parts := []string{it.Name}
	if it.Manufacturer != "" {
		parts = append(parts, it.Manufacturer)
	}
	if it.Description != "" {
		parts = append(parts, it.Description)
	}
	return strings.Join(parts, " - ")
}

func metadata(req validation.CheckoutRequest, totals pricing.Totals) map[string]string {
	return map[string]string{
		"subtotal":      pricing.Format(totals.Subtotal),
		"shipping":      pricing.Format(totals.Shipping),
		"tax":           pricing.Format(totals.Tax),
		"total":         pricing.Format(totals.Total),
		"itemCount":     strconv.Itoa(len(req.CartItems)),
		"paymentMethod": req.Method(),
	}
}

func describe(err error) string {
	fields := validation.FieldErrors(err)
	msgs := make([]string, 0, len(fields))
	for _, m := range fields {
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		return "invalid checkout request"
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
