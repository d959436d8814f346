package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/services"
)

type stubLimiter struct {
	allowSeq []bool
	idx      int
	limit    int64
	enabled  bool
	err      error
	keys     []string
}

func (s *stubLimiter) Allow(_ context.Context, client string) (services.RateLimit, error) {
	s.keys = append(s.keys, client)
	if s.err != nil {
		return services.RateLimit{}, s.err
	}
	if s.idx >= len(s.allowSeq) {
		return services.RateLimit{Limit: s.limit, ResetAt: time.Now()}, nil
	}
	allowed := s.allowSeq[s.idx]
	s.idx++
	remaining := s.limit - int64(s.idx)
	if remaining < 0 {
		remaining = 0
	}
	return services.RateLimit{
		Allowed:   allowed,
		Limit:     s.limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Minute),
	}, nil
}

func (s *stubLimiter) Enabled() bool { return s.enabled }

func (s *stubLimiter) Usage(_ context.Context, client string) (int64, services.RateLimit, error) {
	s.keys = append(s.keys, client)
	if s.err != nil {
		return 0, services.RateLimit{}, s.err
	}
	return 3, services.RateLimit{Allowed: true, Limit: s.limit, Remaining: s.limit - 3, ResetAt: time.Now().Add(time.Minute)}, nil
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRateLimitMiddleware_BlocksAfterLimit(t *testing.T) {
	limiter := &stubLimiter{allowSeq: []bool{true, false}, limit: 1, enabled: true}
	handler := RateLimitMiddleware(limiter, testLogger(), okHandler)

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "1" || rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("expected rate limit headers, got %v", rr.Header())
	}

	rr = httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected no remaining requests, got %q", rr.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	limiter := &stubLimiter{}
	rr := httptest.NewRecorder()
	RateLimitMiddleware(limiter, testLogger(), okHandler)(rr, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if rr.Code != http.StatusOK || len(limiter.keys) != 0 {
		t.Fatalf("disabled limiter must not count, got %d keys=%v", rr.Code, limiter.keys)
	}

	rr = httptest.NewRecorder()
	RateLimitMiddleware(nil, testLogger(), okHandler)(rr, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("nil limiter must pass through, got %d", rr.Code)
	}
}

func TestRateLimitMiddleware_LimiterError(t *testing.T) {
	limiter := &stubLimiter{enabled: true, err: errors.New("redis down")}
	rr := httptest.NewRecorder()
	RateLimitMiddleware(limiter, testLogger(), okHandler)(rr, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestRateLimitMiddleware_KeysBySessionOnlyWhenCookiePresent(t *testing.T) {
	limiter := &stubLimiter{allowSeq: []bool{true, true}, limit: 10, enabled: true}
	handler := RateLimitMiddleware(limiter, testLogger(), okHandler)

	first, s := serve(t, handler, httptest.NewRequest(http.MethodGet, "/api/products", nil), nil)
	if !strings.HasPrefix(limiter.keys[0], "ip_") {
		t.Fatalf("fresh session must be keyed by IP, got %q", limiter.keys[0])
	}

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	for _, c := range first.Result().Cookies() {
		req.AddCookie(c)
	}
	serve(t, handler, req, nil)
	if limiter.keys[1] != "sid_"+s.ID {
		t.Fatalf("returning session must be keyed by id, got %q", limiter.keys[1])
	}
}

func TestRateLimitHandler_Status(t *testing.T) {
	limiter := &stubLimiter{enabled: true, limit: 100}
	h := NewRateLimitHandler(limiter, testLogger(), &config.RateLimitConfig{Enabled: true, Requests: 100, WindowSeconds: 60})

	req := httptest.NewRequest(http.MethodGet, "/api/rate-limit", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	rr := httptest.NewRecorder()
	h.Status(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	decodeBody(t, rr, &resp)
	if resp["enabled"] != true || resp["used"] != float64(3) || resp["remaining"] != float64(97) {
		t.Fatalf("unexpected status %v", resp)
	}
	if resp["key"] != "ip_203.0.113.7" || resp["window_seconds"] != float64(60) || resp["reset_at"] == nil {
		t.Fatalf("unexpected status %v", resp)
	}
}

func TestRateLimitHandler_StatusDisabled(t *testing.T) {
	h := NewRateLimitHandler(&stubLimiter{}, testLogger(), &config.RateLimitConfig{})
	rr := httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/api/rate-limit", nil))

	var resp map[string]interface{}
	decodeBody(t, rr, &resp)
	if resp["enabled"] != false || len(resp) != 1 {
		t.Fatalf("expected only enabled=false, got %v", resp)
	}
}

func TestRateLimitHandler_StatusError(t *testing.T) {
	h := NewRateLimitHandler(&stubLimiter{enabled: true, err: errors.New("redis down")}, testLogger(), &config.RateLimitConfig{Enabled: true})
	rr := httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/api/rate-limit", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
