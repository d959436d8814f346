package services

import (
	"storefront/internal/config"

	"github.com/shopspring/decimal"
)

// Pricing turns a cart subtotal and promo discount into the checkout totals.
type Pricing struct {
	TaxRate               float64
	FreeShippingThreshold float64
	ShippingFee           float64
}

// PriceBreakdown holds amounts rounded to cents.
type PriceBreakdown struct {
	Subtotal float64
	Discount float64
	Tax      float64
	Shipping float64
	Total    float64
}

func NewPricing(cfg *config.CheckoutConfig) *Pricing {
	return &Pricing{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
	}
}

// Shipping is free strictly above the threshold.
func (p *Pricing) Shipping(subtotal float64) float64 {
	if subtotal > p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFee
}

// Summarize taxes the discounted subtotal and adds shipping. The total may
// go negative when a fixed discount exceeds the subtotal.
func (p *Pricing) Summarize(subtotal, discount float64) PriceBreakdown {
	sub := decimal.NewFromFloat(subtotal)
	disc := decimal.NewFromFloat(discount)
	taxable := sub.Sub(disc)
	tax := taxable.Mul(decimal.NewFromFloat(p.TaxRate)).Round(2)
	shipping := decimal.NewFromFloat(p.Shipping(subtotal))
	total := taxable.Add(tax).Add(shipping).Round(2)

	return PriceBreakdown{
		Subtotal: sub.Round(2).InexactFloat64(),
		Discount: disc.Round(2).InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// ToMinorUnits converts an amount to integer cents, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
