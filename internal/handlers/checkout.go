package handlers

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/models"
)

// CheckoutHandler prices the session cart and places orders.
type CheckoutHandler struct {
	checkout CheckoutProcessor
	log      *logger.Logger
}

func NewCheckoutHandler(checkout CheckoutProcessor, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, log: log}
}

func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	summary, err := h.checkout.Summary(r.Context(), s.ID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load checkout summary")
		return
	}
	writeJSONResponse(w, http.StatusOK, summary)
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var customer models.CustomerDetails
	if err := decodeJSON(w, r, &customer); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), s.ID, s.Token, &customer)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to place order")
		return
	}

	h.log.WithField("order_id", order.ID).Info("Order placed")
	writeJSONResponse(w, http.StatusCreated, order)
}
