package database

import (
	"context"
	"fmt"
	"time"
)

const promoCodesSchema = `
CREATE TABLE IF NOT EXISTS promo_codes (
	code             VARCHAR(64) PRIMARY KEY,
	discount         NUMERIC(10,2) NOT NULL CHECK (discount >= 0),
	discount_type    VARCHAR(16) NOT NULL CHECK (discount_type IN ('percentage', 'fixed')),
	expires_at       TIMESTAMPTZ NOT NULL,
	used_count       INTEGER NOT NULL DEFAULT 0,
	max_uses         INTEGER NOT NULL DEFAULT 0,
	min_order_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrate creates the tables the storefront owns.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, promoCodesSchema); err != nil {
		return fmt.Errorf("failed to create promo_codes table: %w", err)
	}
	return nil
}

type seedPromo struct {
	code           string
	discount       float64
	discountType   string
	expiresAt      time.Time
	usedCount      int
	maxUses        int
	minOrderAmount float64
}

func seedPromoCodes(now time.Time) []seedPromo {
	return []seedPromo{
		{code: "WELCOME20", discount: 20, discountType: "percentage", expiresAt: now.AddDate(1, 0, 0), minOrderAmount: 50},
		{code: "SAVE10", discount: 10, discountType: "fixed", expiresAt: now.AddDate(0, 6, 0), minOrderAmount: 30},
		{code: "FLASH15", discount: 15, discountType: "percentage", expiresAt: now.AddDate(0, 0, 7), usedCount: 45, maxUses: 100},
		{code: "EXPIRED5", discount: 5, discountType: "percentage", expiresAt: now.AddDate(0, 0, -1)},
	}
}

// SeedPromoCodes inserts the demo codes. Existing codes are left alone.
func (db *DB) SeedPromoCodes(ctx context.Context, now time.Time) error {
	query := `
		INSERT INTO promo_codes (code, discount, discount_type, expires_at, used_count, max_uses, min_order_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (code) DO NOTHING
	`
	for _, p := range seedPromoCodes(now) {
		if _, err := db.ExecContext(ctx, query, p.code, p.discount, p.discountType, p.expiresAt, p.usedCount, p.maxUses, p.minOrderAmount, now); err != nil {
			return fmt.Errorf("failed to seed promo code %s: %w", p.code, err)
		}
	}
	return nil
}
