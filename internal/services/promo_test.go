package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPromoLookup map[string]*models.PromoCode

func (m memoryPromoLookup) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	p, ok := m[code]
	if !ok {
		return nil, apperror.NotFound("promo code not found", nil)
	}
	return p, nil
}

type failingPromoLookup struct{ err error }

func (f failingPromoLookup) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	return nil, f.err
}

var promoNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testPromoCodes() memoryPromoLookup {
	return memoryPromoLookup{
		"WELCOME20": {Code: "WELCOME20", Discount: 20, DiscountType: models.DiscountTypePercentage, ExpiresAt: promoNow.AddDate(1, 0, 0), MinOrderAmount: 50},
		"SAVE10":    {Code: "SAVE10", Discount: 10, DiscountType: models.DiscountTypeFixed, ExpiresAt: promoNow.AddDate(0, 6, 0)},
		"FLASH15":   {Code: "FLASH15", Discount: 15, DiscountType: models.DiscountTypePercentage, ExpiresAt: promoNow.AddDate(0, 0, 7), UsedCount: 100, MaxUses: 100},
		"EXPIRED5":  {Code: "EXPIRED5", Discount: 5, DiscountType: models.DiscountTypePercentage, ExpiresAt: promoNow.AddDate(0, 0, -1)},
	}
}

func TestAppliedPromo_PercentageDiscount(t *testing.T) {
	var promo AppliedPromo
	require.NoError(t, promo.Apply(context.Background(), testPromoCodes(), "welcome20", promoNow))

	assert.Equal(t, "WELCOME20", promo.Code)
	assert.Equal(t, 200.0, promo.CalculateDiscount(1000))
	assert.True(t, promo.Applicable(1000))
	assert.False(t, promo.Applicable(10))
}

func TestAppliedPromo_FixedDiscountNotClamped(t *testing.T) {
	var promo AppliedPromo
	require.NoError(t, promo.Apply(context.Background(), testPromoCodes(), "SAVE10", promoNow))

	assert.Equal(t, 10.0, promo.CalculateDiscount(100))
	assert.Equal(t, 10.0, promo.CalculateDiscount(4))
}

func TestAppliedPromo_NoCodeNoDiscount(t *testing.T) {
	var promo AppliedPromo
	assert.False(t, promo.Active())
	assert.Zero(t, promo.CalculateDiscount(500))
	assert.False(t, promo.Applicable(500))
}

func TestAppliedPromo_SecondApplyReplacesFirst(t *testing.T) {
	var promo AppliedPromo
	codes := testPromoCodes()
	require.NoError(t, promo.Apply(context.Background(), codes, "WELCOME20", promoNow))
	require.NoError(t, promo.Apply(context.Background(), codes, "SAVE10", promoNow))

	assert.Equal(t, "SAVE10", promo.Code)
	assert.Equal(t, models.DiscountTypeFixed, promo.DiscountType)
	assert.Equal(t, 10.0, promo.CalculateDiscount(1000))
}

func TestAppliedPromo_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		code    string
		wantErr error
		wantMsg string
	}{
		{name: "empty", code: "  ", wantErr: ErrInvalidCode, wantMsg: "Please enter a promo code"},
		{name: "unknown", code: "NOPE", wantErr: ErrInvalidCode, wantMsg: "Invalid promo code"},
		{name: "expired", code: "expired5", wantErr: ErrExpired, wantMsg: "This promo code has expired"},
		{name: "usage limit", code: "FLASH15", wantErr: ErrUsageLimitReached, wantMsg: "This promo code has reached its usage limit"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var promo AppliedPromo
			require.NoError(t, promo.Apply(context.Background(), testPromoCodes(), "WELCOME20", promoNow))

			err := promo.Apply(context.Background(), testPromoCodes(), tc.code, promoNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr))
			assert.True(t, apperror.Is(err, apperror.KindValidation))
			assert.Equal(t, tc.wantMsg, err.Error())
			assert.False(t, promo.Active(), "a rejected code must leave nothing applied")
		})
	}
}

func TestAppliedPromo_LookupFailureKeepsState(t *testing.T) {
	var promo AppliedPromo
	require.NoError(t, promo.Apply(context.Background(), testPromoCodes(), "SAVE10", promoNow))

	boom := errors.New("db down")
	err := promo.Apply(context.Background(), failingPromoLookup{err: boom}, "WELCOME20", promoNow)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "SAVE10", promo.Code)
}

func TestAppliedPromo_ExpiryBoundary(t *testing.T) {
	codes := memoryPromoLookup{"EDGE": {Code: "EDGE", Discount: 5, DiscountType: models.DiscountTypeFixed, ExpiresAt: promoNow}}
	var promo AppliedPromo
	assert.NoError(t, promo.Apply(context.Background(), codes, "edge", promoNow))
	assert.ErrorIs(t, promo.Apply(context.Background(), codes, "edge", promoNow.Add(time.Second)), ErrExpired)
}

func TestAppliedPromo_Remove(t *testing.T) {
	var promo AppliedPromo
	require.NoError(t, promo.Apply(context.Background(), testPromoCodes(), "WELCOME20", promoNow))
	promo.Remove()
	assert.False(t, promo.Active())
	assert.Zero(t, promo.CalculateDiscount(100))
}
