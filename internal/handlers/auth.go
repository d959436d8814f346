package handlers

import (
	"net/http"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/session"
)

// AuthHandler reflects backend logins into the cookie session. The bearer
// token never leaves the server.
type AuthHandler struct {
	auth  AuthGateway
	state SessionStateMover
	log   *logger.Logger
}

func NewAuthHandler(auth AuthGateway, state SessionStateMover, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, state: state, log: log}
}

// UserResponse wraps the current user.
type UserResponse struct {
	User *models.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Login failed")
		return
	}

	remember := req.RememberMe == nil || *req.RememberMe
	h.signIn(w, r, s, result, remember)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	result, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Registration failed")
		return
	}
	h.signIn(w, r, s, result, true)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, s *session.Session, result *models.AuthResult, remember bool) {
	user := result.User
	previousID := s.SignIn(result.Token, &user, remember)
	if err := h.state.Move(r.Context(), previousID, s.ID); err != nil {
		h.log.WithError(err).WithField("user_id", user.ID).Warn("Failed to carry cart over to the signed in session")
	}
	if err := s.Save(w, r); err != nil {
		h.log.WithError(err).Error("Failed to save session")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.log.WithField("user_id", user.ID).Info("User signed in")
	writeJSONResponse(w, http.StatusOK, UserResponse{User: &user})
}

// Logout always succeeds locally, whatever the backend says.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	h.auth.Logout(r.Context(), s.Token)
	s.SignOut()
	if err := s.Save(w, r); err != nil {
		h.log.WithError(err).Error("Failed to save session")
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// Me refreshes the session user from the backend. Guests get user: null.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}
	if !s.Authenticated() {
		writeJSONResponse(w, http.StatusOK, UserResponse{})
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), s.Token)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load user")
		return
	}
	h.storeUser(w, r, s, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPut) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var update models.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	update.Name = strings.TrimSpace(update.Name)
	update.Email = strings.TrimSpace(update.Email)
	if update.Name == "" && update.Email == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), s.Token, &update)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update profile")
		return
	}
	h.storeUser(w, r, s, user)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPut) {
		return
	}
	s, ok := requestSession(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Current and new password are required")
		return
	}

	message, err := h.auth.ChangePassword(r.Context(), s.Token, &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to change password")
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: message})
}

func (h *AuthHandler) storeUser(w http.ResponseWriter, r *http.Request, s *session.Session, user *models.User) {
	s.User = user
	if err := s.Save(w, r); err != nil {
		h.log.WithError(err).Error("Failed to save session")
	}
	writeJSONResponse(w, http.StatusOK, UserResponse{User: user})
}
