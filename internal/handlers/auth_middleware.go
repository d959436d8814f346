package handlers

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/session"
)

// RequireUser lets only logged-in shoppers through.
func RequireUser(log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := requestSession(w, r)
		if !ok {
			return
		}
		if !s.Authenticated() {
			writeUnauthorized(w, r, log, "Please log in to continue")
			return
		}
		next(w, r)
	}
}

// RequireAdmin answers 401 to guests and 403 to shoppers without the admin role.
func RequireAdmin(log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return RequireUser(log, func(w http.ResponseWriter, r *http.Request) {
		s, err := session.FromContext(r.Context())
		if err != nil || !s.IsAdmin() {
			if log != nil {
				log.WithField("path", r.URL.Path).Warn("Admin route refused")
			}
			writeErrorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}
