package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stripe/stripe-go/v83"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/gateway"
	"storefront/internal/handlers"
	"storefront/internal/kafka"
	"storefront/internal/logger"
	"storefront/internal/mailer"
	"storefront/internal/models"
	"storefront/internal/redis"
	"storefront/internal/services"
	"storefront/internal/session"
)

// Factories for external connections, swappable in tests.
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application holds the assembled dependencies.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

// routeHandlers groups everything setupRoutes mounts.
type routeHandlers struct {
	products     *handlers.ProductHandler
	adminProduct *handlers.AdminProductHandler
	auth         *handlers.AuthHandler
	cart         *handlers.CartHandler
	promo        *handlers.PromoHandler
	promoCodes   *handlers.PromoCodeHandler
	checkout     *handlers.CheckoutHandler
	payments     *handlers.PaymentHandler
	contact      *handlers.ContactHandler
	health       *handlers.HealthHandler
	rateLimit    *handlers.RateLimitHandler
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting storefront server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)
	stripe.Key = cfg.Stripe.SecretKey

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	if cfg.Database.SeedPromo {
		if err := db.SeedPromoCodes(ctx, time.Now()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed promo codes: %w", err)
		}
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	backend := gateway.New(&cfg.Backend, &cfg.Cache, redisClient, log)
	sessions := session.NewManager(&cfg.Session, log)

	promoRepo := services.NewPromoRepository(db, log)
	cartService := services.NewCartService(redisClient, backend, log)
	promoService := services.NewPromoService(redisClient, promoRepo, log)
	summarizer := services.NewSummarizer(cartService, promoService, services.NewPricing(&cfg.Checkout))
	paymentService := services.NewPaymentService(&cfg.Stripe, summarizer, redisClient, producer, log)
	notifier := services.NewNotificationService(mailer.NewSMTPMailer(&cfg.Mail, log), cfg.Mail.AdminEmail, cfg.Mail.Configured(), log)
	checkoutService := services.NewCheckoutService(summarizer, backend, paymentService, notifier, producer, log)
	productAdmin := services.NewProductAdminService(backend, producer, log)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	h := &routeHandlers{
		products:     handlers.NewProductHandler(backend, log),
		adminProduct: handlers.NewAdminProductHandler(productAdmin, log),
		auth:         handlers.NewAuthHandler(backend, services.NewSessionState(redisClient, log), log),
		cart:         handlers.NewCartHandler(cartService, log),
		promo:        handlers.NewPromoHandler(promoService, log),
		promoCodes:   handlers.NewPromoCodeHandler(promoRepo, log),
		checkout:     handlers.NewCheckoutHandler(checkoutService, log),
		payments:     handlers.NewPaymentHandler(paymentService, log),
		contact:      handlers.NewContactHandler(notifier, log),
		health:       handlers.NewHealthHandler(db, redisClient, backend, cfg.Kafka.Brokers, kafkaHealthCheck),
		rateLimit:    handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit),
	}

	registerEventHandlers(consumer, backend, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(h, sessions, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// setupRoutes mounts health checks and the Stripe webhook at the top level.
// Everything else under /api/ runs behind the session middleware and the
// rate limiter.
func setupRoutes(h *routeHandlers, sessions *session.Manager, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	api := http.NewServeMux()

	applyAPI := func(next http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, next))
	}
	user := func(next http.HandlerFunc) http.HandlerFunc { return handlers.RequireUser(log, next) }
	admin := func(next http.HandlerFunc) http.HandlerFunc { return handlers.RequireAdmin(log, next) }

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(h.health.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(h.health.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(h.health.Liveness))

	// Stripe calls the webhook without a browser session.
	mux.HandleFunc("/api/stripe/webhook", h.payments.Webhook)
	mux.Handle("/api/", sessions.Middleware(api))

	// Catalog
	api.HandleFunc("/api/products", applyAPI(h.products.ListProducts))
	api.HandleFunc("/api/products/bestsellers", applyAPI(h.products.Bestsellers))
	api.HandleFunc("/api/products/flash-sale", applyAPI(h.products.FlashSale))
	api.HandleFunc("/api/products/search", applyAPI(h.products.Search))
	api.HandleFunc("/api/products/{id}", applyAPI(h.products.GetProduct))
	api.HandleFunc("/api/products/{id}/availability", applyAPI(h.products.Availability))
	api.HandleFunc("/api/products/{id}/reviews", applyAPI(user(h.products.AddReview)))
	api.HandleFunc("/api/categories/{category}", applyAPI(h.products.ProductsByCategory))
	api.HandleFunc("/api/collections/{gender}", applyAPI(h.products.Collection))

	// Auth
	api.HandleFunc("/api/auth/login", applyAPI(h.auth.Login))
	api.HandleFunc("/api/auth/register", applyAPI(h.auth.Register))
	api.HandleFunc("/api/auth/logout", applyAPI(h.auth.Logout))
	api.HandleFunc("/api/auth/me", applyAPI(h.auth.Me))
	api.HandleFunc("/api/auth/profile", applyAPI(user(h.auth.UpdateProfile)))
	api.HandleFunc("/api/auth/password", applyAPI(user(h.auth.ChangePassword)))

	// Cart and promo
	api.HandleFunc("/api/cart", applyAPI(handleCartRoute(h.cart)))
	api.HandleFunc("/api/cart/items", applyAPI(h.cart.AddItem))
	api.HandleFunc("/api/cart/items/{productId}", applyAPI(handleCartItemRoute(h.cart)))
	api.HandleFunc("/api/promo", applyAPI(handlePromoRoute(h.promo)))

	// Checkout, payments, contact
	api.HandleFunc("/api/checkout/summary", applyAPI(h.checkout.Summary))
	api.HandleFunc("/api/checkout/orders", applyAPI(h.checkout.PlaceOrder))
	api.HandleFunc("/api/stripe/create-payment-intent", applyAPI(h.payments.CreatePaymentIntent))
	api.HandleFunc("/api/contact", applyAPI(h.contact.Send))

	// Admin
	api.HandleFunc("/api/admin/products", applyAPI(admin(h.adminProduct.CreateProduct)))
	api.HandleFunc("/api/admin/products/{id}", applyAPI(admin(handleAdminProductRoute(h.adminProduct))))
	api.HandleFunc("/api/admin/products/{id}/images", applyAPI(admin(h.adminProduct.UpdateImages)))
	api.HandleFunc("/api/admin/products/{id}/stock", applyAPI(admin(h.adminProduct.UpdateStock)))
	api.HandleFunc("/api/admin/promo-codes", applyAPI(admin(handlePromoCodesRoute(h.promoCodes))))
	api.HandleFunc("/api/admin/promo-codes/{code}", applyAPI(admin(handlePromoCodeRoute(h.promoCodes))))

	// Rate limit status
	api.HandleFunc("/api/rate-limit/status", applyAPI(h.rateLimit.Status))

	return mux
}

func handleCartRoute(handler *handlers.CartHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetCart(w, r)
		case http.MethodDelete:
			handler.ClearCart(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCartItemRoute(handler *handlers.CartHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handler.UpdateItem(w, r)
		case http.MethodDelete:
			handler.RemoveItem(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handlePromoRoute(handler *handlers.PromoHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetPromo(w, r)
		case http.MethodPost:
			handler.ApplyPromo(w, r)
		case http.MethodDelete:
			handler.RemovePromo(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleAdminProductRoute(handler *handlers.AdminProductHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handler.UpdateProduct(w, r)
		case http.MethodDelete:
			handler.DeleteProduct(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handlePromoCodesRoute(handler *handlers.PromoCodeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListPromoCodes(w, r)
		case http.MethodPost:
			handler.CreatePromoCode(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handlePromoCodeRoute(handler *handlers.PromoCodeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetPromoCode(w, r)
		case http.MethodPut:
			handler.UpdatePromoCode(w, r)
		case http.MethodDelete:
			handler.DeletePromoCode(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// cacheInvalidator drops cached catalog reads.
type cacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// registerEventHandlers subscribes to storefront events. product.changed is
// published by whichever instance ran the admin mutation; every instance
// drops its cached catalog reads when it arrives.
func registerEventHandlers(consumer *kafka.Consumer, cache cacheInvalidator, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeProductChanged, func(ctx context.Context, event *models.Event) error {
		log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"product_id": event.Data["product_id"],
			"action":     event.Data["action"],
		}).Info("Invalidating catalog cache")
		return cache.InvalidateCache(ctx)
	})

	consumer.RegisterHandler(models.EventTypeOrderPlaced, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order placed event")
		return nil
	})

	for _, t := range []models.EventType{
		models.EventTypePaymentSucceeded,
		models.EventTypePaymentFailed,
		models.EventTypeChargeRefunded,
	} {
		consumer.RegisterHandler(t, func(ctx context.Context, event *models.Event) error {
			log.WithFields(map[string]interface{}{
				"event_id":   event.ID,
				"event_type": event.Type,
			}).Info("Processing payment event")
			return nil
		})
	}
}

func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+session.PageHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
