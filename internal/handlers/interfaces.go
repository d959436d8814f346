package handlers

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/services"
)

// ----- Catalog -----

type CatalogGateway interface {
	ListProducts(ctx context.Context, token string, filters *models.ProductFilters) (*models.ProductPage, error)
	GetProduct(ctx context.Context, token, id string) (*models.Product, error)
	ProductsByCategory(ctx context.Context, token, category string, limit int) ([]models.Product, error)
	FlashSaleProducts(ctx context.Context, token string, limit int) ([]models.Product, error)
	Bestsellers(ctx context.Context, token string, limit int) ([]models.Product, error)
	CheckAvailability(ctx context.Context, token, id string, quantity int) (bool, error)
	AddReview(ctx context.Context, token, id string, review *models.ReviewInput) (*models.Product, error)
}

type ProductAdmin interface {
	Create(ctx context.Context, token string, input *models.ProductInput, images []models.ImageUpload) (*models.Product, error)
	Update(ctx context.Context, token, id string, update *models.ProductUpdate) (*models.Product, error)
	UpdateImages(ctx context.Context, token, id string, newImages []models.ImageUpload, existing []string) (*models.Product, error)
	UpdateStock(ctx context.Context, token, id string, quantity int) (*models.Product, error)
	Delete(ctx context.Context, token, id string, hard bool) error
}

// ----- Auth -----

type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Register(ctx context.Context, in *models.RegisterRequest) (*models.AuthResult, error)
	Logout(ctx context.Context, token string)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	UpdateProfile(ctx context.Context, token string, update *models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, token string, in *models.ChangePasswordRequest) (string, error)
}

// SessionStateMover follows a session id rotation with the cart and promo.
type SessionStateMover interface {
	Move(ctx context.Context, from, to string) error
}

// ----- Cart & promo -----

type CartManager interface {
	Get(ctx context.Context, sessionID string) (*services.Cart, error)
	Add(ctx context.Context, sessionID, token string, req *models.AddCartItemRequest) (*services.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, productID, size string, quantity int) (*services.Cart, error)
	Remove(ctx context.Context, sessionID, productID, size string) (*services.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type PromoApplier interface {
	Get(ctx context.Context, sessionID string) (*services.AppliedPromo, error)
	Apply(ctx context.Context, sessionID, code string) (*services.AppliedPromo, error)
	Remove(ctx context.Context, sessionID string) error
}

type PromoCatalog interface {
	CreatePromoCode(ctx context.Context, req *models.CreatePromoCodeRequest) (*models.PromoCode, error)
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	UpdatePromoCode(ctx context.Context, code string, req *models.UpdatePromoCodeRequest) (*models.PromoCode, error)
	DeletePromoCode(ctx context.Context, code string) error
	ListPromoCodes(ctx context.Context, limit, offset int) ([]*models.PromoCode, error)
}

// ----- Checkout -----

type CheckoutProcessor interface {
	Summary(ctx context.Context, sessionID string) (*models.CheckoutSummary, error)
	PlaceOrder(ctx context.Context, sessionID, token string, customer *models.CustomerDetails) (*models.Order, error)
}

type PaymentProcessor interface {
	CreatePaymentIntent(ctx context.Context, sessionID string, req *models.PaymentIntentRequest) (*models.PaymentIntent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*services.WebhookResult, error)
}

type ContactSender interface {
	SendContact(ctx context.Context, msg *models.ContactMessage) error
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}

type BackendHealth interface {
	Ping(ctx context.Context) error
}
