package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/logger"
	"storefront/internal/redis"
)

// PromoService keeps the promo code applied to each session.
type PromoService struct {
	store stateStore
	codes PromoLookup
	log   *logger.Logger
	now   func() time.Time
}

func NewPromoService(store stateStore, codes PromoLookup, log *logger.Logger) *PromoService {
	return &PromoService{
		store: store,
		codes: codes,
		log:   log,
		now:   time.Now,
	}
}

func promoKey(sessionID string) string {
	return redis.GenerateKey(redis.KeyPrefixPromo, sessionID)
}

// Get returns the applied promo; the zero value when nothing is applied.
func (s *PromoService) Get(ctx context.Context, sessionID string) (*AppliedPromo, error) {
	promo := &AppliedPromo{}
	if err := s.store.Get(ctx, promoKey(sessionID), promo); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return &AppliedPromo{}, nil
		}
		return nil, fmt.Errorf("failed to load applied promo: %w", err)
	}
	return promo, nil
}

// Apply validates code and stores it for the session. A rejected code
// removes whatever was applied before.
func (s *PromoService) Apply(ctx context.Context, sessionID, code string) (*AppliedPromo, error) {
	promo, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if applyErr := promo.Apply(ctx, s.codes, code, s.now()); applyErr != nil {
		if apperror.Is(applyErr, apperror.KindValidation) {
			if err := s.store.Delete(ctx, promoKey(sessionID)); err != nil {
				return nil, fmt.Errorf("failed to clear applied promo: %w", err)
			}
			s.log.WithFields(map[string]interface{}{
				"session_id": sessionID,
				"reason":     applyErr.Error(),
			}).Debug("Promo code rejected")
		}
		return nil, applyErr
	}

	if err := s.store.Set(ctx, promoKey(sessionID), promo, CartTTL); err != nil {
		return nil, fmt.Errorf("failed to save applied promo: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"session_id": sessionID,
		"promo_code": promo.Code,
	}).Info("Promo code applied")
	return promo, nil
}

func (s *PromoService) Remove(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, promoKey(sessionID)); err != nil {
		return fmt.Errorf("failed to remove applied promo: %w", err)
	}
	return nil
}
