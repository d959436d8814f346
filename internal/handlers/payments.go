package handlers

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/models"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBody        = 65536
)

// PaymentHandler creates payment intents and receives Stripe webhooks.
type PaymentHandler struct {
	payments PaymentProcessor
	log      *logger.Logger
}

func NewPaymentHandler(payments PaymentProcessor, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

// CreatePaymentIntent charges the session's checkout total. The body is
// optional and only carries receipt details.
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var req models.PaymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	intent, err := h.payments.CreatePaymentIntent(r.Context(), s.ID, &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to create payment intent")
		return
	}
	writeJSONResponse(w, http.StatusOK, intent)
}

// Webhook needs the raw body for signature verification.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		writeErrorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Webhook handler failed")
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}
