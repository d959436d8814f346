package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/redis"
)

// CartTTL is how long an untouched cart survives.
const CartTTL = 30 * 24 * time.Hour

// stateStore is the subset of the Redis client used for per-session state.
type stateStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ProductReader resolves catalog products.
type ProductReader interface {
	GetProduct(ctx context.Context, token, id string) (*models.Product, error)
}

// sessionLocks serialises read-modify-write cycles per session id.
type sessionLocks struct {
	stripes [64]sync.Mutex
}

func (l *sessionLocks) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m.Unlock
}

// CartService keeps one Cart per session in Redis.
type CartService struct {
	store    stateStore
	products ProductReader
	log      *logger.Logger
	locks    sessionLocks
}

func NewCartService(store stateStore, products ProductReader, log *logger.Logger) *CartService {
	return &CartService{
		store:    store,
		products: products,
		log:      log,
	}
}

func cartKey(sessionID string) string {
	return redis.GenerateKey(redis.KeyPrefixCart, sessionID)
}

func (s *CartService) load(ctx context.Context, sessionID string) (*Cart, error) {
	cart := &Cart{}
	if err := s.store.Get(ctx, cartKey(sessionID), cart); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return &Cart{}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, sessionID string, cart *Cart) error {
	if cart.IsEmpty() {
		if err := s.store.Delete(ctx, cartKey(sessionID)); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	}
	if err := s.store.Set(ctx, cartKey(sessionID), cart, CartTTL); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Get returns the session cart; a session without a cart has an empty one.
func (s *CartService) Get(ctx context.Context, sessionID string) (*Cart, error) {
	return s.load(ctx, sessionID)
}

// Add resolves the product through the catalog and merges it into the cart.
// Stock is not checked here; checkout verifies availability.
func (s *CartService) Add(ctx context.Context, sessionID, token string, req *models.AddCartItemRequest) (*Cart, error) {
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return nil, apperror.Validation("productId is required", nil)
	}

	product, err := s.products.GetProduct(ctx, token, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperror.Validation("This product is not available", nil)
	}

	size := strings.ToUpper(strings.TrimSpace(req.Size))
	if len(product.Sizes) > 0 {
		if size == "" {
			return nil, apperror.Validation("Please select a size", nil)
		}
		if !containsString(product.Sizes, size) {
			return nil, apperror.Validation(fmt.Sprintf("Size %s is not offered for this product", size), nil)
		}
	} else {
		size = ""
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.AddItem(models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  req.Quantity,
		Image:     product.MainImage(),
		Size:      size,
	})
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"session_id": sessionID,
		"product_id": product.ID,
		"size":       size,
	}).Debug("Item added to cart")
	return cart, nil
}

// UpdateQuantity sets the quantity of a line, clamped to at least 1.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID, size string, quantity int) (*Cart, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !cart.UpdateQuantity(productID, strings.ToUpper(size), quantity) {
		return nil, apperror.NotFound("cart item not found", nil)
	}
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Remove drops a line; removing a missing line is not an error.
func (s *CartService) Remove(ctx context.Context, sessionID, productID, size string) (*Cart, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.RemoveItem(productID, strings.ToUpper(size))
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	if err := s.store.Delete(ctx, cartKey(sessionID)); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
