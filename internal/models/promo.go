package models

import "time"

// DiscountType describes how a promo code discounts a subtotal.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// PromoCode is a stored promo code. MaxUses of 0 means unlimited.
// MinOrderAmount is informational and never blocks an apply.
type PromoCode struct {
	Code           string       `json:"code" db:"code"`
	Discount       float64      `json:"discount" db:"discount"`
	DiscountType   DiscountType `json:"discountType" db:"discount_type"`
	ExpiresAt      time.Time    `json:"expiresAt" db:"expires_at"`
	UsedCount      int          `json:"usedCount" db:"used_count"`
	MaxUses        int          `json:"maxUses,omitempty" db:"max_uses"`
	MinOrderAmount float64      `json:"minOrderAmount" db:"min_order_amount"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`
}

// CreatePromoCodeRequest is the admin payload for a new code.
type CreatePromoCodeRequest struct {
	Code           string       `json:"code"`
	Discount       float64      `json:"discount"`
	DiscountType   DiscountType `json:"discountType"`
	ExpiresAt      time.Time    `json:"expiresAt"`
	MaxUses        int          `json:"maxUses,omitempty"`
	MinOrderAmount float64      `json:"minOrderAmount,omitempty"`
}

// UpdatePromoCodeRequest is the admin payload for changing a code.
type UpdatePromoCodeRequest struct {
	Discount       float64      `json:"discount"`
	DiscountType   DiscountType `json:"discountType"`
	ExpiresAt      time.Time    `json:"expiresAt"`
	MaxUses        int          `json:"maxUses,omitempty"`
	MinOrderAmount float64      `json:"minOrderAmount,omitempty"`
}

// ApplyPromoRequest is the shopper payload for applying a code.
type ApplyPromoRequest struct {
	Code string `json:"code"`
}
