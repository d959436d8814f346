package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/apperror"
	"storefront/internal/logger"
	"storefront/internal/services"
	"storefront/internal/session"
)

func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, internalMessage string) {
	switch {
	case apperror.Is(err, apperror.KindUnauthorized):
		writeUnauthorized(w, r, log, err.Error())
	case apperror.Is(err, apperror.KindForbidden):
		writeErrorResponse(w, http.StatusForbidden, err.Error())
	case apperror.Is(err, apperror.KindNotFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	case apperror.Is(err, apperror.KindValidation):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case apperror.Is(err, apperror.KindConflict):
		writeErrorResponse(w, http.StatusConflict, err.Error())
	case apperror.Is(err, apperror.KindNetwork):
		if log != nil {
			log.WithError(err).Warn("Backend unreachable")
		}
		writeErrorResponse(w, http.StatusServiceUnavailable, "Network error. Please check your connection.")
	case apperror.Is(err, apperror.KindUpstream):
		if log != nil {
			log.WithError(err).Error(internalMessage)
		}
		writeErrorResponse(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, services.ErrEmailNotConfigured):
		writeErrorResponse(w, http.StatusInternalServerError, services.MsgEmailNotConfigured)
	default:
		if log != nil {
			log.WithError(err).Error(internalMessage)
		}
		writeErrorResponse(w, http.StatusInternalServerError, internalMessage)
	}
}

// writeUnauthorized drops the login state of the current session and answers
// 401. When the page that made the call is protected the answer also points
// the browser at the login page.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, log *logger.Logger, message string) {
	if s, err := session.FromContext(r.Context()); err == nil && s.Authenticated() {
		s.SignOut()
		if err := s.Save(w, r); err != nil && log != nil {
			log.WithError(err).Error("Failed to clear session")
		}
	}

	resp := ErrorResponse{
		Error:   http.StatusText(http.StatusUnauthorized),
		Message: message,
	}
	if session.ProtectedPage(session.PagePath(r)) {
		resp.Redirect = session.LoginPath
		w.Header().Set("Location", session.LoginPath)
	}
	writeJSONResponse(w, http.StatusUnauthorized, resp)
}
