package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/models"
)

const maxPromoCodeLength = 64

// PromoCodeHandler manages the promo code catalogue. Admin only.
type PromoCodeHandler struct {
	promos PromoCatalog
	log    *logger.Logger
}

func NewPromoCodeHandler(promos PromoCatalog, log *logger.Logger) *PromoCodeHandler {
	return &PromoCodeHandler{
		promos: promos,
		log:    log,
	}
}

func (h *PromoCodeHandler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	var req models.CreatePromoCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validatePromoCodeParam(req.Code); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	promo, err := h.promos.CreatePromoCode(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to create promo code")
		return
	}

	writeJSONResponse(w, http.StatusCreated, promo)
}

func (h *PromoCodeHandler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	promos, err := h.promos.ListPromoCodes(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to list promo codes")
		return
	}

	writeJSONResponse(w, http.StatusOK, promos)
}

func (h *PromoCodeHandler) GetPromoCode(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	code := r.PathValue("code")
	if err := validatePromoCodeParam(code); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	promo, err := h.promos.GetPromoCode(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to get promo code")
		return
	}

	writeJSONResponse(w, http.StatusOK, promo)
}

func (h *PromoCodeHandler) UpdatePromoCode(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPut) {
		return
	}

	code := r.PathValue("code")
	if err := validatePromoCodeParam(code); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdatePromoCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	promo, err := h.promos.UpdatePromoCode(r.Context(), code, &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update promo code")
		return
	}

	writeJSONResponse(w, http.StatusOK, promo)
}

func (h *PromoCodeHandler) DeletePromoCode(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodDelete) {
		return
	}

	code := r.PathValue("code")
	if err := validatePromoCodeParam(code); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.promos.DeletePromoCode(r.Context(), code); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to delete promo code")
		return
	}

	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Promo code deleted"})
}

func validatePromoCodeParam(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("promo code is required")
	}
	if len(code) > maxPromoCodeLength {
		return fmt.Errorf("promo code is too long")
	}
	return nil
}
