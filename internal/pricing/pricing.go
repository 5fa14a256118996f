// Package pricing holds the money arithmetic shared by the cart and the
// checkout builder. All amounts are AUD decimals.
package pricing

import "github.com/shopspring/decimal"

// Currency is the ISO code sent to the payment provider.
const Currency = "aud"

var (
	// GSTRate is the fixed Australian goods and services tax.
	GSTRate = decimal.RequireFromString("0.10")
	// FlatShipping is added to the cart's own total whenever it is non-empty.
	FlatShipping = decimal.RequireFromString("15.00")

	hundred = decimal.NewFromInt(100)
)

// Line is anything priced by unit with a quantity.
type Line interface {
	UnitPrice() decimal.Decimal
	Units() int
}

// Totals is a full price breakdown. Total = Subtotal + Shipping + Tax.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal returns Σ(price × quantity).
func Subtotal[L Line](lines []L) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Units()))))
	}
	return sum
}

// GST returns 10% of amount rounded to cents.
func GST(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(GSTRate).Round(2)
}

// CartTotals prices lines the way the cart displays them: flat shipping
// when anything is in the cart.
func CartTotals[L Line](lines []L) Totals {
	subtotal := Subtotal(lines)
	shipping := decimal.Zero
	if subtotal.GreaterThan(decimal.Zero) {
		shipping = FlatShipping
	}
	return newTotals(subtotal, shipping)
}

// CheckoutTotals prices lines for a checkout session. Shipping is free at
// checkout time, so these totals can differ from CartTotals for the same
// lines.
func CheckoutTotals[L Line](lines []L) Totals {
	return newTotals(Subtotal(lines), decimal.Zero)
}

func newTotals(subtotal, shipping decimal.Decimal) Totals {
	tax := GST(subtotal)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// ToCents converts an amount to integer minor units, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// Format renders an amount with exactly two decimals, e.g. "220.00".
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
