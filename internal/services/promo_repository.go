package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/lib/pq"
)

const promoColumns = `code, discount, discount_type, expires_at, used_count, max_uses, min_order_amount, created_at, updated_at`

// PromoRepository stores the promo code catalogue in PostgreSQL. The
// storefront only reads used_count; it is maintained by whoever redeems codes.
type PromoRepository struct {
	db  *database.DB
	log *logger.Logger
}

func NewPromoRepository(db *database.DB, log *logger.Logger) *PromoRepository {
	return &PromoRepository{
		db:  db,
		log: log,
	}
}

// CreatePromoCode adds a code. Codes are stored upper-case.
func (r *PromoRepository) CreatePromoCode(ctx context.Context, req *models.CreatePromoCodeRequest) (*models.PromoCode, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, apperror.Validation("code is required", nil)
	}
	if err := validatePromoCodePayload(req.DiscountType, req.Discount, req.ExpiresAt, req.MaxUses, req.MinOrderAmount); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	now := time.Now()
	promo := &models.PromoCode{
		Code:           code,
		Discount:       req.Discount,
		DiscountType:   req.DiscountType,
		ExpiresAt:      req.ExpiresAt,
		MaxUses:        req.MaxUses,
		MinOrderAmount: req.MinOrderAmount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	query := `
		INSERT INTO promo_codes (code, discount, discount_type, expires_at, used_count, max_uses, min_order_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query, promo.Code, promo.Discount, promo.DiscountType, promo.ExpiresAt, promo.MaxUses, promo.MinOrderAmount, promo.CreatedAt, promo.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperror.Conflict("promo code already exists", err)
		}
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}

	r.log.WithField("promo_code", promo.Code).Info("Promo code created")
	return promo, nil
}

func (r *PromoRepository) UpdatePromoCode(ctx context.Context, code string, req *models.UpdatePromoCodeRequest) (*models.PromoCode, error) {
	if err := validatePromoCodePayload(req.DiscountType, req.Discount, req.ExpiresAt, req.MaxUses, req.MinOrderAmount); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}
	code = strings.ToUpper(strings.TrimSpace(code))

	query := `
		UPDATE promo_codes
		SET discount = $1, discount_type = $2, expires_at = $3, max_uses = $4, min_order_amount = $5, updated_at = $6
		WHERE code = $7
	`

	result, err := r.db.ExecContext(ctx, query, req.Discount, req.DiscountType, req.ExpiresAt, req.MaxUses, req.MinOrderAmount, time.Now(), code)
	if err != nil {
		return nil, fmt.Errorf("failed to update promo code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("promo code not found", nil)
	}

	r.log.WithField("promo_code", code).Info("Promo code updated")
	return r.GetPromoCode(ctx, code)
}

func (r *PromoRepository) DeletePromoCode(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	result, err := r.db.ExecContext(ctx, "DELETE FROM promo_codes WHERE code = $1", code)
	if err != nil {
		return fmt.Errorf("failed to delete promo code: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("promo code not found", nil)
	}
	r.log.WithField("promo_code", code).Info("Promo code deleted")
	return nil
}

// GetPromoCode matches case-insensitively.
func (r *PromoRepository) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = UPPER($1)`

	promo := &models.PromoCode{}
	if err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(code)).Scan(
		&promo.Code, &promo.Discount, &promo.DiscountType, &promo.ExpiresAt, &promo.UsedCount,
		&promo.MaxUses, &promo.MinOrderAmount, &promo.CreatedAt, &promo.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("promo code not found", err)
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return promo, nil
}

func (r *PromoRepository) ListPromoCodes(ctx context.Context, limit, offset int) ([]*models.PromoCode, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	promos := make([]*models.PromoCode, 0)
	for rows.Next() {
		p := &models.PromoCode{}
		if err := rows.Scan(&p.Code, &p.Discount, &p.DiscountType, &p.ExpiresAt, &p.UsedCount, &p.MaxUses, &p.MinOrderAmount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		promos = append(promos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate promo codes: %w", err)
	}

	return promos, nil
}

func validatePromoCodePayload(discountType models.DiscountType, discount float64, expiresAt time.Time, maxUses int, minOrder float64) error {
	switch discountType {
	case models.DiscountTypeFixed:
		if discount < 0 {
			return fmt.Errorf("discount must be non-negative for fixed discount")
		}
	case models.DiscountTypePercentage:
		if discount <= 0 || discount > 100 {
			return fmt.Errorf("percentage discount must be between 0 and 100")
		}
	default:
		return fmt.Errorf("discountType must be percentage or fixed")
	}
	if expiresAt.IsZero() {
		return fmt.Errorf("expiresAt is required")
	}
	if maxUses < 0 {
		return fmt.Errorf("maxUses must be non-negative")
	}
	if minOrder < 0 {
		return fmt.Errorf("minOrderAmount must be non-negative")
	}
	return nil
}
