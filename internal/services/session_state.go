package services

import (
	"context"
	"fmt"

	"storefront/internal/logger"
	"storefront/internal/redis"
)

type keyRenamer interface {
	Rename(ctx context.Context, key, newKey string) error
}

// SessionState moves the Redis state keyed by a session id when the id
// rotates on sign-in.
type SessionState struct {
	store keyRenamer
	log   *logger.Logger
}

func NewSessionState(store keyRenamer, log *logger.Logger) *SessionState {
	return &SessionState{store: store, log: log}
}

// Move carries the cart and applied promo from one session id to another.
// Missing keys are skipped.
func (s *SessionState) Move(ctx context.Context, from, to string) error {
	if from == "" || from == to {
		return nil
	}
	for _, prefix := range []string{redis.KeyPrefixCart, redis.KeyPrefixPromo} {
		if err := s.store.Rename(ctx, redis.GenerateKey(prefix, from), redis.GenerateKey(prefix, to)); err != nil {
			return fmt.Errorf("failed to move %s state: %w", prefix, err)
		}
	}

	s.log.WithFields(map[string]interface{}{
		"from_session": from,
		"to_session":   to,
	}).Debug("Session state moved")
	return nil
}
