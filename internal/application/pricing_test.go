// internal/application/pricing_test.go
package application

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

func defaultPricing() *PricingCalculator {
	return NewPricingCalculator(DefaultFreeShippingThreshold, DefaultFlatShippingFee, DefaultTaxRate, DefaultCurrency)
}

func TestPricing_Calculate(t *testing.T) {
	calc := defaultPricing()

	tests := []struct {
		name  string
		items []domain.OrderLineItem
		want  domain.PricingBreakdown
	}{
		{
			name:  "single item above threshold",
			items: []domain.OrderLineItem{{UnitPrice: 2499, Quantity: 1}},
			want:  domain.PricingBreakdown{Subtotal: 2499, Shipping: 0, Tax: 450, Total: 2949, Currency: "INR"},
		},
		{
			name:  "below threshold pays flat fee",
			items: []domain.OrderLineItem{{UnitPrice: 199, Quantity: 2}},
			want:  domain.PricingBreakdown{Subtotal: 398, Shipping: 50, Tax: 72, Total: 520, Currency: "INR"},
		},
		{
			name:  "exactly at threshold ships free",
			items: []domain.OrderLineItem{{UnitPrice: 250, Quantity: 2}},
			want:  domain.PricingBreakdown{Subtotal: 500, Shipping: 0, Tax: 90, Total: 590, Currency: "INR"},
		},
		{
			name:  "half rounds away from zero",
			items: []domain.OrderLineItem{{UnitPrice: 25, Quantity: 1}},
			want:  domain.PricingBreakdown{Subtotal: 25, Shipping: 50, Tax: 5, Total: 80, Currency: "INR"},
		},
		{
			name:  "several lines",
			items: []domain.OrderLineItem{{UnitPrice: 899, Quantity: 2}, {UnitPrice: 349, Quantity: 3}},
			want:  domain.PricingBreakdown{Subtotal: 2845, Shipping: 0, Tax: 512, Total: 3357, Currency: "INR"},
		},
		{
			name:  "empty cart",
			items: nil,
			want:  domain.PricingBreakdown{Currency: "INR"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.Calculate(tt.items); got != tt.want {
				t.Errorf("Calculate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPricing_Idempotent(t *testing.T) {
	calc := defaultPricing()
	items := []domain.OrderLineItem{{UnitPrice: 1299, Quantity: 2}, {UnitPrice: 75, Quantity: 1}}
	snapshot := append([]domain.OrderLineItem(nil), items...)

	first := calc.Calculate(items)
	second := calc.Calculate(items)
	if first != second {
		t.Errorf("Calculate() not idempotent: %+v vs %+v", first, second)
	}
	for i := range items {
		if items[i] != snapshot[i] {
			t.Errorf("Calculate() mutated item %d", i)
		}
	}
}

func TestPricing_SubtotalLinearInQuantity(t *testing.T) {
	calc := defaultPricing()
	for _, price := range []int64{1, 49, 250, 2499} {
		base := calc.Calculate([]domain.OrderLineItem{{UnitPrice: price, Quantity: 1}}).Subtotal
		for q := 1; q <= 10; q++ {
			got := calc.Calculate([]domain.OrderLineItem{{UnitPrice: price, Quantity: q}}).Subtotal
			if got != base*int64(q) {
				t.Errorf("price %d qty %d: subtotal = %d, want %d", price, q, got, base*int64(q))
			}
		}
	}
}

// Shipping is free iff the subtotal reaches the threshold, for any non-empty
// cart. An empty cart is the one exception: nothing ships, so shipping is 0
// even though its subtotal of 0 is below the threshold.
func TestPricing_ShippingFreeIffAtThreshold(t *testing.T) {
	for _, threshold := range []int64{500, 1500} {
		calc := NewPricingCalculator(threshold, 50, decimal.RequireFromString("0.18"), "INR")
		if b := calc.Calculate(nil); b.Subtotal != 0 || b.Shipping != 0 || b.Total != 0 {
			t.Errorf("threshold %d empty cart = %+v, want all zero", threshold, b)
		}
		for subtotal := threshold - 3; subtotal <= threshold+3; subtotal++ {
			b := calc.Calculate([]domain.OrderLineItem{{UnitPrice: subtotal, Quantity: 1}})
			if (b.Shipping == 0) != (b.Subtotal >= threshold) {
				t.Errorf("threshold %d subtotal %d: shipping = %d", threshold, b.Subtotal, b.Shipping)
			}
		}
	}
}
