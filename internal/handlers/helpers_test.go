package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/session"
)

func testLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func testSessions() *session.Manager {
	return session.NewManager(&config.SessionConfig{
		Name:       "storefront_session",
		Secret:     "handler-test-secret-handler-test",
		MaxAgeDays: 30,
	}, testLogger())
}

// serve runs h behind the session middleware. setup may sign the session in
// before h runs; the session h saw is returned.
func serve(t *testing.T, h http.HandlerFunc, req *http.Request, setup func(s *session.Session)) (*httptest.ResponseRecorder, *session.Session) {
	t.Helper()
	var seen *session.Session
	wrapped := testSessions().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := session.FromContext(r.Context())
		if err != nil {
			t.Fatalf("session missing: %v", err)
		}
		if setup != nil {
			setup(s)
		}
		seen = s
		h(w, r)
	}))
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	return rr, seen
}

func signedIn(role models.Role) func(s *session.Session) {
	return func(s *session.Session) {
		s.SignIn("tok", &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: role}, true)
	}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

// ----- stubs -----

type stubCatalog struct {
	page      *models.ProductPage
	product   *models.Product
	products  []models.Product
	available bool
	err       error

	lastToken   string
	lastFilters *models.ProductFilters
	lastLimit   int
	lastReview  *models.ReviewInput
}

func (s *stubCatalog) ListProducts(_ context.Context, token string, filters *models.ProductFilters) (*models.ProductPage, error) {
	s.lastToken, s.lastFilters = token, filters
	if s.err != nil {
		return nil, s.err
	}
	page := *s.page
	page.Products = append([]models.Product(nil), s.page.Products...)
	return &page, nil
}
func (s *stubCatalog) GetProduct(_ context.Context, token, _ string) (*models.Product, error) {
	s.lastToken = token
	return s.product, s.err
}
func (s *stubCatalog) ProductsByCategory(_ context.Context, token, _ string, limit int) ([]models.Product, error) {
	s.lastToken, s.lastLimit = token, limit
	return s.products, s.err
}
func (s *stubCatalog) FlashSaleProducts(_ context.Context, token string, limit int) ([]models.Product, error) {
	s.lastToken, s.lastLimit = token, limit
	return s.products, s.err
}
func (s *stubCatalog) Bestsellers(_ context.Context, token string, limit int) ([]models.Product, error) {
	s.lastToken, s.lastLimit = token, limit
	return s.products, s.err
}
func (s *stubCatalog) CheckAvailability(_ context.Context, token, _ string, _ int) (bool, error) {
	s.lastToken = token
	return s.available, s.err
}
func (s *stubCatalog) AddReview(_ context.Context, token, _ string, review *models.ReviewInput) (*models.Product, error) {
	s.lastToken, s.lastReview = token, review
	return s.product, s.err
}

type stubAuth struct {
	result  *models.AuthResult
	user    *models.User
	message string
	err     error

	loggedOut string
	lastEmail string
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (*models.AuthResult, error) {
	s.lastEmail = email
	return s.result, s.err
}
func (s *stubAuth) Register(_ context.Context, in *models.RegisterRequest) (*models.AuthResult, error) {
	s.lastEmail = in.Email
	return s.result, s.err
}
func (s *stubAuth) Logout(_ context.Context, token string) { s.loggedOut = token }
func (s *stubAuth) CurrentUser(_ context.Context, _ string) (*models.User, error) {
	return s.user, s.err
}
func (s *stubAuth) UpdateProfile(_ context.Context, _ string, _ *models.ProfileUpdate) (*models.User, error) {
	return s.user, s.err
}
func (s *stubAuth) ChangePassword(_ context.Context, _ string, _ *models.ChangePasswordRequest) (string, error) {
	return s.message, s.err
}

type stubCarts struct {
	cart *services.Cart
	err  error

	lastSession string
	lastToken   string
	lastProduct string
	lastSize    string
	lastQty     int
	cleared     bool
}

func (s *stubCarts) Get(_ context.Context, sid string) (*services.Cart, error) {
	s.lastSession = sid
	return s.cart, s.err
}
func (s *stubCarts) Add(_ context.Context, sid, token string, req *models.AddCartItemRequest) (*services.Cart, error) {
	s.lastSession, s.lastToken, s.lastProduct, s.lastSize, s.lastQty = sid, token, req.ProductID, req.Size, req.Quantity
	return s.cart, s.err
}
func (s *stubCarts) UpdateQuantity(_ context.Context, sid, productID, size string, qty int) (*services.Cart, error) {
	s.lastSession, s.lastProduct, s.lastSize, s.lastQty = sid, productID, size, qty
	return s.cart, s.err
}
func (s *stubCarts) Remove(_ context.Context, sid, productID, size string) (*services.Cart, error) {
	s.lastSession, s.lastProduct, s.lastSize = sid, productID, size
	return s.cart, s.err
}
func (s *stubCarts) Clear(_ context.Context, sid string) error {
	s.lastSession, s.cleared = sid, true
	return s.err
}

type stubPromos struct {
	promo   *services.AppliedPromo
	err     error
	code    string
	removed bool
}

func (s *stubPromos) Get(_ context.Context, _ string) (*services.AppliedPromo, error) {
	return s.promo, s.err
}
func (s *stubPromos) Apply(_ context.Context, _ string, code string) (*services.AppliedPromo, error) {
	s.code = code
	return s.promo, s.err
}
func (s *stubPromos) Remove(_ context.Context, _ string) error {
	s.removed = true
	return s.err
}

type stubCheckout struct {
	summary *models.CheckoutSummary
	order   *models.Order
	err     error

	lastSession  string
	lastToken    string
	lastCustomer *models.CustomerDetails
}

func (s *stubCheckout) Summary(_ context.Context, sid string) (*models.CheckoutSummary, error) {
	s.lastSession = sid
	return s.summary, s.err
}
func (s *stubCheckout) PlaceOrder(_ context.Context, sid, token string, c *models.CustomerDetails) (*models.Order, error) {
	s.lastSession, s.lastToken, s.lastCustomer = sid, token, c
	return s.order, s.err
}

type stubPayments struct {
	intent *models.PaymentIntent
	result *services.WebhookResult
	err    error

	lastRequest   *models.PaymentIntentRequest
	lastPayload   []byte
	lastSignature string
}

func (s *stubPayments) CreatePaymentIntent(_ context.Context, _ string, req *models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	s.lastRequest = req
	return s.intent, s.err
}
func (s *stubPayments) HandleWebhook(_ context.Context, payload []byte, signature string) (*services.WebhookResult, error) {
	s.lastPayload, s.lastSignature = payload, signature
	return s.result, s.err
}

type stubContact struct {
	err  error
	last *models.ContactMessage
}

func (s *stubContact) SendContact(_ context.Context, msg *models.ContactMessage) error {
	s.last = msg
	return s.err
}
