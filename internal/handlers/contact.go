package handlers

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/models"
)

// ContactHandler forwards the contact form to the shop admin.
type ContactHandler struct {
	contact ContactSender
	log     *logger.Logger
}

func NewContactHandler(contact ContactSender, log *logger.Logger) *ContactHandler {
	return &ContactHandler{contact: contact, log: log}
}

// ContactResponse confirms a delivered contact form.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	var msg models.ContactMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.contact.SendContact(r.Context(), &msg); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to send contact form email")
		return
	}
	writeJSONResponse(w, http.StatusOK, ContactResponse{Success: true, Message: "Contact form email sent successfully"})
}
