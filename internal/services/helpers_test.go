package services

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/apperror"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/mailer"
	"storefront/internal/models"
	"storefront/internal/redis"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/go-redis/redis/v8"
)

func newTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &database.DB{DB: db}, mock
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.NewFromClient(rdb, newTestLogger()), mr
}

type stubProducts struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	available map[string]bool
	tokens    []string
}

func newStubProducts(products ...*models.Product) *stubProducts {
	s := &stubProducts{products: map[string]*models.Product{}, available: map[string]bool{}}
	for _, p := range products {
		s.products[p.ID] = p
		s.available[p.ID] = true
	}
	return s
}

func (s *stubProducts) GetProduct(ctx context.Context, token, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	p, ok := s.products[id]
	if !ok {
		return nil, apperror.NotFound("Product not found", nil)
	}
	cp := *p
	return &cp, nil
}

func (s *stubProducts) CheckAvailability(ctx context.Context, token, id string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	p, ok := s.products[id]
	if !ok {
		return false, apperror.NotFound("Product not found", nil)
	}
	return s.available[id] && p.Stock >= quantity, nil
}

func testProduct(id string, price float64, sizes ...string) *models.Product {
	return &models.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    price,
		Images:   []string{"https://cdn.example.com/" + id + ".jpg"},
		Category: models.CategoryFashion,
		Stock:    10,
		IsActive: true,
		Sizes:    sizes,
	}
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingEvents struct {
	mu       sync.Mutex
	orders   []*models.Order
	payments []models.EventType
	objects  []string
	err      error
}

func (e *recordingEvents) PublishOrderPlaced(order *models.Order) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orders = append(e.orders, order)
	return e.err
}

func (e *recordingEvents) PublishPaymentEvent(eventType models.EventType, objectID string, data map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payments = append(e.payments, eventType)
	e.objects = append(e.objects, objectID)
	return e.err
}

type stubVerifier struct {
	err      error
	ids      []string
	sessions []string
	total    float64
}

func (v *stubVerifier) VerifyPaymentIntent(ctx context.Context, sessionID, paymentIntentID string, total float64) error {
	v.ids = append(v.ids, paymentIntentID)
	v.sessions = append(v.sessions, sessionID)
	v.total = total
	return v.err
}
