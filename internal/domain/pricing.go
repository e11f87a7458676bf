package domain

import "github.com/shopspring/decimal"

// PricingConfig holds the shipping and tax policy applied to a cart.
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	BaseShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricingConfig returns free shipping from 500, a flat fee of 15 below
// that, and 12.5% tax.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		FreeShippingThreshold: decimal.NewFromInt(500),
		BaseShippingFee:       decimal.NewFromInt(15),
		TaxRate:               decimal.RequireFromString("0.125"),
	}
}

// Summary is the derived price breakdown of a set of line items. Amounts are
// unrounded; round only for display.
type Summary struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	ShippingCost         decimal.Decimal `json:"shipping_cost"`
	Tax                  decimal.Decimal `json:"tax"`
	Total                decimal.Decimal `json:"total"`
	TotalItems           int             `json:"total_items"`
	AmountToFreeShipping decimal.Decimal `json:"amount_to_free_shipping"`
}

// FreeShipping reports whether the subtotal reached the free-shipping
// threshold. A zero base fee alone does not qualify.
func (s Summary) FreeShipping() bool {
	return s.AmountToFreeShipping.IsZero()
}

// ComputeSummary prices items under cfg. Shipping is free when the subtotal
// reaches the threshold and the flat base fee otherwise; tax applies to the
// subtotal only. The result depends on nothing but its arguments.
func ComputeSummary(items []LineItem, cfg PricingConfig) Summary {
	sub := subtotal(items)

	shipping := cfg.BaseShippingFee
	if sub.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := sub.Mul(cfg.TaxRate)

	var totalItems int
	for _, item := range items {
		totalItems += item.Quantity
	}

	return Summary{
		Subtotal:             sub,
		ShippingCost:         shipping,
		Tax:                  tax,
		Total:                sub.Add(shipping).Add(tax),
		TotalItems:           totalItems,
		AmountToFreeShipping: decimal.Max(decimal.Zero, cfg.FreeShippingThreshold.Sub(sub)),
	}
}

func subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
