package handlers

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/models"
)

// PromoHandler applies and removes the session's promo code.
type PromoHandler struct {
	promos PromoApplier
	log    *logger.Logger
}

func NewPromoHandler(promos PromoApplier, log *logger.Logger) *PromoHandler {
	return &PromoHandler{promos: promos, log: log}
}

func (h *PromoHandler) GetPromo(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	promo, err := h.promos.Get(r.Context(), s.ID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load promo code")
		return
	}
	writeJSONResponse(w, http.StatusOK, promo)
}

// ApplyPromo answers 400 with the shopper-facing reason when the code is
// rejected; the previous code is dropped in that case.
func (h *PromoHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var req models.ApplyPromoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	promo, err := h.promos.Apply(r.Context(), s.ID, req.Code)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to apply promo code")
		return
	}
	writeJSONResponse(w, http.StatusOK, promo)
}

func (h *PromoHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodDelete) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	if err := h.promos.Remove(r.Context(), s.ID); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to remove promo code")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Promo code removed"})
}
