package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/redis"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

// CheckoutSummarizer prices a session's cart.
type CheckoutSummarizer interface {
	Summary(ctx context.Context, sessionID string) (*models.CheckoutSummary, error)
}

// PaymentPublisher emits payment events.
type PaymentPublisher interface {
	PublishPaymentEvent(eventType models.EventType, objectID string, data map[string]interface{}) error
}

// paymentClaims records which payment intents already paid for an order.
type paymentClaims interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

// WebhookResult acknowledges a processed Stripe webhook.
type WebhookResult struct {
	Received bool `json:"received"`
}

// PaymentService creates Stripe payment intents and consumes Stripe webhooks.
type PaymentService struct {
	summaries     CheckoutSummarizer
	claims        paymentClaims
	events        PaymentPublisher
	currency      string
	webhookSecret string
	log           *logger.Logger
	now           func() time.Time

	newIntent func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	getIntent func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewPaymentService expects stripe.Key to be set by the caller.
func NewPaymentService(cfg *config.StripeConfig, summaries CheckoutSummarizer, claims paymentClaims, events PaymentPublisher, log *logger.Logger) *PaymentService {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &PaymentService{
		summaries:     summaries,
		claims:        claims,
		events:        events,
		currency:      currency,
		webhookSecret: cfg.WebhookSecret,
		log:           log,
		now:           time.Now,
		newIntent:     paymentintent.New,
		getIntent:     paymentintent.Get,
	}
}

// CreatePaymentIntent charges the session's checkout total. The amount is
// always computed server-side.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, sessionID string, req *models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	summary, err := s.summaries.Summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, apperror.Validation("Your cart is empty", nil)
	}
	if summary.Total <= 0 {
		return nil, apperror.Validation("Invalid amount", nil)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(summary.Total)),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"timestamp":  s.now().UTC().Format(time.RFC3339),
			"session_id": sessionID,
		},
	}
	if req != nil {
		if req.Description != "" {
			params.Description = stripe.String(req.Description)
		}
		if req.Email != "" {
			params.ReceiptEmail = stripe.String(req.Email)
		}
	}
	if summary.PromoCode != "" {
		params.Metadata["promo_code"] = summary.PromoCode
	}

	intent, err := s.newIntent(params)
	if err != nil {
		return nil, apperror.Upstream(http.StatusBadGateway, "Failed to create payment intent", err)
	}

	s.log.WithFields(logrus.Fields{
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
		"currency":          s.currency,
	}).Info("Payment intent created")

	return &models.PaymentIntent{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// VerifyPaymentIntent checks that the intent is paid (or settling), that it
// was created for sessionID and total, then claims it so it pays for one
// order only.
func (s *PaymentService) VerifyPaymentIntent(ctx context.Context, sessionID, paymentIntentID string, total float64) error {
	intent, err := s.getIntent(paymentIntentID, nil)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return apperror.Validation("Unknown payment intent", err)
		}
		return apperror.Upstream(http.StatusBadGateway, "Failed to verify payment", err)
	}

	if intent.Metadata["session_id"] != sessionID {
		return apperror.Forbidden("Payment belongs to another session", nil)
	}
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
	default:
		return apperror.Validation("Payment has not been completed", nil)
	}
	if intent.Amount != ToMinorUnits(total) {
		return apperror.Conflict("Payment amount does not match the order total", nil)
	}

	claimed, err := s.claims.SetNX(ctx, redis.GenerateKey(redis.KeyPrefixPayment, intent.ID), sessionID, CartTTL)
	if err != nil {
		return fmt.Errorf("failed to claim payment intent: %w", err)
	}
	if !claimed {
		s.log.WithFields(logrus.Fields{
			"payment_intent_id": intent.ID,
			"session_id":        sessionID,
		}).Warn("Payment intent reused")
		return apperror.Conflict("Payment has already been used for another order", nil)
	}
	return nil
}

// HandleWebhook verifies the Stripe signature, logs the event and publishes
// it for the payment event types the storefront tracks.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if signature == "" {
		return nil, apperror.Validation("No signature", nil)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.log.WithError(err).Warn("Webhook verification failed")
		return nil, apperror.Validation("Webhook verification failed", err)
	}

	entry := s.log.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, apperror.Validation("Invalid payment intent payload", err)
		}
		eventType := models.EventTypePaymentSucceeded
		if event.Type == "payment_intent.payment_failed" {
			eventType = models.EventTypePaymentFailed
			entry.WithField("payment_intent_id", pi.ID).Warn("Payment failed")
		} else {
			entry.WithField("payment_intent_id", pi.ID).Info("Payment succeeded")
		}
		s.publish(entry, eventType, pi.ID, map[string]interface{}{
			"payment_intent_id": pi.ID,
			"amount":            pi.Amount,
			"currency":          string(pi.Currency),
			"status":            string(pi.Status),
			"stripe_event_id":   event.ID,
		})
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, apperror.Validation("Invalid charge payload", err)
		}
		entry.WithField("charge_id", ch.ID).Info("Charge refunded")
		s.publish(entry, models.EventTypeChargeRefunded, ch.ID, map[string]interface{}{
			"charge_id":       ch.ID,
			"amount_refunded": ch.AmountRefunded,
			"currency":        string(ch.Currency),
			"stripe_event_id": event.ID,
		})
	default:
		entry.Info("Unhandled webhook event type")
	}

	return &WebhookResult{Received: true}, nil
}

func (s *PaymentService) publish(entry *logrus.Entry, eventType models.EventType, objectID string, data map[string]interface{}) {
	if err := s.events.PublishPaymentEvent(eventType, objectID, data); err != nil {
		entry.WithError(err).Errorf("Failed to publish %s event", eventType)
	}
}
