package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/services"
	"storefront/internal/session"
)

// RateLimitHandler serves the rate limit status of the caller.
type RateLimitHandler struct {
	limiter RateLimitStatusProvider
	log     *logger.Logger
	cfg     *config.RateLimitConfig
}

func NewRateLimitHandler(limiter RateLimitStatusProvider, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimitHandler {
	return &RateLimitHandler{
		limiter: limiter,
		log:     log,
		cfg:     cfg,
	}
}

func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	if h.limiter == nil || h.cfg == nil || !h.limiter.Enabled() {
		writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
		})
		return
	}

	key := rateLimitKey(r)
	used, status, err := h.limiter.Usage(r.Context(), key)
	if err != nil {
		h.log.WithError(err).Error("Failed to fetch rate limit usage")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch rate limit usage")
		return
	}

	resp := map[string]interface{}{
		"enabled":        true,
		"limit":          status.Limit,
		"window_seconds": h.cfg.WindowSeconds,
		"used":           used,
		"remaining":      status.Remaining,
		"key":            key,
	}
	if !status.ResetAt.IsZero() {
		resp["reset_at"] = status.ResetAt.Format(time.RFC3339)
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// MiddlewareLimiter counts requests per client.
type MiddlewareLimiter interface {
	Allow(ctx context.Context, client string) (services.RateLimit, error)
	Enabled() bool
}

// RateLimitStatusProvider adds the read-only view used by the status endpoint.
type RateLimitStatusProvider interface {
	MiddlewareLimiter
	Usage(ctx context.Context, client string) (int64, services.RateLimit, error)
}

// rateLimitKey counts browsers that present a session cookie by session and
// everyone else by IP, so dropping the cookie does not reset the window.
func rateLimitKey(r *http.Request) string {
	if s, err := session.FromContext(r.Context()); err == nil && !s.IsNew() {
		return services.ClientKey(r, s.ID)
	}
	return services.ClientKey(r, "")
}

// RateLimitMiddleware answers 429 once the caller's window is used up.
func RateLimitMiddleware(limiter MiddlewareLimiter, log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil || !limiter.Enabled() {
			next(w, r)
			return
		}

		status, err := limiter.Allow(r.Context(), rateLimitKey(r))
		if err != nil {
			log.WithError(err).Error("Rate limiter failed")
			writeErrorResponse(w, http.StatusInternalServerError, "Rate limiter error")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(status.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(status.Remaining, 10))
		if !status.ResetAt.IsZero() {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(status.ResetAt.Unix(), 10))
		}

		if !status.Allowed {
			writeErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next(w, r)
	}
}
