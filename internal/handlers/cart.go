package handlers

import (
	"net/http"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/services"
)

// CartHandler exposes the session cart.
type CartHandler struct {
	carts CartManager
	log   *logger.Logger
}

func NewCartHandler(carts CartManager, log *logger.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

// CartResponse is the cart with its derived totals.
type CartResponse struct {
	Items     []models.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Total     float64           `json:"total"`
}

func cartResponse(cart *services.Cart) CartResponse {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return CartResponse{Items: items, ItemCount: cart.ItemCount(), Total: cart.Total()}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Get(r.Context(), s.ID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load cart")
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var req models.AddCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.carts.Add(r.Context(), s.ID, s.Token, &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to add item to cart")
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPut) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), s.ID, r.PathValue("productId"), lineSize(r), req.Quantity)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update cart")
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodDelete) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Remove(r.Context(), s.ID, r.PathValue("productId"), lineSize(r))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update cart")
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodDelete) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	if err := h.carts.Clear(r.Context(), s.ID); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to clear cart")
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse(&services.Cart{}))
}

// lineSize is the size part of a cart line key; lines without sizes use "".
func lineSize(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("size"))
}
