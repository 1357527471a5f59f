// internal/application/pricing.go
package application

import (
	"github.com/shopspring/decimal"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

const (
	DefaultFreeShippingThreshold int64 = 500
	DefaultFlatShippingFee       int64 = 50
	DefaultCurrency                    = "INR"
)

var DefaultTaxRate = decimal.RequireFromString("0.18")

// PricingCalculator turns line items into a breakdown in whole currency units.
// It holds no state besides its configuration.
type PricingCalculator struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
	TaxRate               decimal.Decimal
	Currency              string
}

func NewPricingCalculator(threshold, flatFee int64, taxRate decimal.Decimal, currency string) *PricingCalculator {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &PricingCalculator{
		FreeShippingThreshold: threshold,
		FlatShippingFee:       flatFee,
		TaxRate:               taxRate,
		Currency:              currency,
	}
}

func (c *PricingCalculator) Calculate(items []domain.OrderLineItem) domain.PricingBreakdown {
	out := domain.PricingBreakdown{Currency: c.Currency}
	// nothing ships, so no shipping fee
	if len(items) == 0 {
		return out
	}

	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPrice * int64(it.Quantity)
	}
	out.Subtotal = subtotal

	if subtotal < c.FreeShippingThreshold {
		out.Shipping = c.FlatShippingFee
	}
	// half away from zero
	out.Tax = decimal.NewFromInt(subtotal).Mul(c.TaxRate).Round(0).IntPart()
	out.Total = out.Subtotal + out.Shipping + out.Tax
	return out
}
