package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/models"
)

var (
	ErrInvalidCode       = errors.New("invalid promo code")
	ErrExpired           = errors.New("promo code expired")
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
)

// PromoLookup finds a promo code by its normalised (upper-case) value.
type PromoLookup interface {
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
}

// AppliedPromo is the single promo code applied to a session. The zero value
// means nothing is applied.
type AppliedPromo struct {
	Code           string              `json:"code,omitempty"`
	Discount       float64             `json:"discount"`
	DiscountType   models.DiscountType `json:"discountType,omitempty"`
	MinOrderAmount float64             `json:"minOrderAmount,omitempty"`
}

// Active reports whether a code is applied.
func (p *AppliedPromo) Active() bool {
	return p != nil && p.Code != ""
}

// Apply looks the code up and, when it is usable at now, replaces the applied
// code. A rejected code leaves nothing applied. Lookup failures other than
// "not found" are returned as-is and leave the state unchanged.
func (p *AppliedPromo) Apply(ctx context.Context, codes PromoLookup, code string, now time.Time) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		p.Remove()
		return apperror.Validation("Please enter a promo code", ErrInvalidCode)
	}

	promo, err := codes.GetPromoCode(ctx, code)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			p.Remove()
			return apperror.Validation("Invalid promo code", ErrInvalidCode)
		}
		return err
	}

	if now.After(promo.ExpiresAt) {
		p.Remove()
		return apperror.Validation("This promo code has expired", ErrExpired)
	}
	if promo.MaxUses > 0 && promo.UsedCount >= promo.MaxUses {
		p.Remove()
		return apperror.Validation("This promo code has reached its usage limit", ErrUsageLimitReached)
	}

	*p = AppliedPromo{
		Code:           promo.Code,
		Discount:       promo.Discount,
		DiscountType:   promo.DiscountType,
		MinOrderAmount: promo.MinOrderAmount,
	}
	return nil
}

// CalculateDiscount returns the discount off subtotal. A fixed discount is
// returned as-is even when it exceeds subtotal.
func (p *AppliedPromo) CalculateDiscount(subtotal float64) float64 {
	if !p.Active() {
		return 0
	}
	if p.DiscountType == models.DiscountTypePercentage {
		return subtotal * p.Discount / 100
	}
	return p.Discount
}

// Applicable reports whether subtotal reaches the code's minimum order amount.
// It is informational; the discount applies regardless.
func (p *AppliedPromo) Applicable(subtotal float64) bool {
	if !p.Active() {
		return false
	}
	return subtotal >= p.MinOrderAmount
}

func (p *AppliedPromo) Remove() {
	*p = AppliedPromo{}
}
