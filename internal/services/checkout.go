package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AvailabilityChecker asks the catalog whether a quantity can be ordered.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, token, id string, quantity int) (bool, error)
}

// OrderNotifier sends order confirmation email.
type OrderNotifier interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

// OrderPublisher emits order events.
type OrderPublisher interface {
	PublishOrderPlaced(order *models.Order) error
}

// PaymentVerifier confirms that a card payment made by a session covers an
// order total and has not paid for an earlier order.
type PaymentVerifier interface {
	VerifyPaymentIntent(ctx context.Context, sessionID, paymentIntentID string, total float64) error
}

// Summarizer prices a session's cart with its applied promo.
type Summarizer struct {
	carts   *CartService
	promos  *PromoService
	pricing *Pricing
}

func NewSummarizer(carts *CartService, promos *PromoService, pricing *Pricing) *Summarizer {
	return &Summarizer{carts: carts, promos: promos, pricing: pricing}
}

// Summary returns cart lines and totals for sessionID.
func (s *Summarizer) Summary(ctx context.Context, sessionID string) (*models.CheckoutSummary, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	promo, err := s.promos.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	subtotal := cart.Total()
	breakdown := s.pricing.Summarize(subtotal, promo.CalculateDiscount(subtotal))

	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}

	return &models.CheckoutSummary{
		Items:          items,
		ItemCount:      cart.ItemCount(),
		Subtotal:       breakdown.Subtotal,
		PromoCode:      promo.Code,
		PromoDiscount:  breakdown.Discount,
		PromoEligible:  promo.Applicable(subtotal),
		Tax:            breakdown.Tax,
		Shipping:       breakdown.Shipping,
		Total:          breakdown.Total,
		FreeShipping:   breakdown.Shipping == 0,
		MinOrderAmount: promo.MinOrderAmount,
	}, nil
}

// CheckoutService turns a session cart into a placed order.
type CheckoutService struct {
	*Summarizer
	stock    AvailabilityChecker
	payments PaymentVerifier
	notifier OrderNotifier
	events   OrderPublisher
	log      *logger.Logger
	now      func() time.Time
}

// NewCheckoutService wires order placement. payments may be nil, in which
// case card orders are accepted without a payment intent check.
func NewCheckoutService(
	summarizer *Summarizer,
	stock AvailabilityChecker,
	payments PaymentVerifier,
	notifier OrderNotifier,
	events OrderPublisher,
	log *logger.Logger,
) *CheckoutService {
	return &CheckoutService{
		Summarizer: summarizer,
		stock:      stock,
		payments:   payments,
		notifier:   notifier,
		events:     events,
		log:        log,
		now:        time.Now,
	}
}

// PlaceOrder validates the customer details, re-checks stock for every line,
// confirms the card payment, then notifies and clears the session state.
// Email and event delivery failures are logged; the order still stands.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID, token string, customer *models.CustomerDetails) (*models.Order, error) {
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}

	summary, err := s.Summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, apperror.Validation("Your cart is empty", nil)
	}

	for _, item := range summary.Items {
		ok, err := s.stock.CheckAvailability(ctx, token, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.Conflict(fmt.Sprintf("%s is not available in the requested quantity", item.Name), nil)
		}
	}

	if customer.PaymentMethod == models.PaymentMethodCard && s.payments != nil {
		if customer.PaymentIntentID == "" {
			return nil, apperror.Validation("Payment is required for card orders", nil)
		}
		if err := s.payments.VerifyPaymentIntent(ctx, sessionID, customer.PaymentIntentID, summary.Total); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		ID:        uuid.New(),
		Customer:  *customer,
		Summary:   *summary,
		CreatedAt: s.now().UTC(),
	}

	logEntry := s.log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"session_id": sessionID,
		"total":      summary.Total,
	})

	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
		logEntry.WithError(err).Warn("Failed to send order confirmation")
	}
	if err := s.events.PublishOrderPlaced(order); err != nil {
		logEntry.WithError(err).Error("Failed to publish order placed event")
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		logEntry.WithError(err).Error("Failed to clear cart after order")
	}
	if err := s.promos.Remove(ctx, sessionID); err != nil {
		logEntry.WithError(err).Error("Failed to clear promo after order")
	}

	logEntry.Info("Order placed")
	return order, nil
}

func validateCustomer(c *models.CustomerDetails) error {
	if c == nil {
		return apperror.Validation("Customer details are required", nil)
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)

	required := []struct {
		field, value string
	}{
		{"name", c.Name},
		{"email", c.Email},
		{"phone", c.Phone},
		{"address", c.Address},
		{"city", c.City},
	}
	for _, r := range required {
		if r.value == "" {
			return apperror.Validation(r.field+" is required", nil)
		}
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return apperror.Validation("email is invalid", err)
	}

	switch c.PaymentMethod {
	case "":
		c.PaymentMethod = models.PaymentMethodCard
	case models.PaymentMethodCard, models.PaymentMethodCashOnDelivery:
	case models.PaymentMethodMobile:
		if strings.TrimSpace(c.PaymentNumber) == "" {
			return apperror.Validation("paymentNumber is required for mobile payments", nil)
		}
	default:
		return apperror.Validation("paymentMethod is invalid", nil)
	}
	return nil
}
