package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(checkoutItemStructValidation, CheckoutItem{})
	v.RegisterStructValidation(shippingAddressStructValidation, ShippingAddress{})

	return v
}

// checkoutItemStructValidation rejects negative prices; decimal.Decimal is
// opaque to tag validators.
func checkoutItemStructValidation(sl validatorv10.StructLevel) {
	item := sl.Current().Interface().(CheckoutItem)
	if item.Price.LessThan(decimal.Zero) {
		sl.ReportError(item.Price, "price", "Price", "price_non_negative", item.Price.String())
	}
}

// shippingAddressStructValidation restricts delivery to Australia.
func shippingAddressStructValidation(sl validatorv10.StructLevel) {
	addr := sl.Current().Interface().(ShippingAddress)
	if addr.Country != "" && !strings.EqualFold(addr.Country, "AU") {
		sl.ReportError(addr.Country, "country", "Country", "country_au", addr.Country)
	}
}
