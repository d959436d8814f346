package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/redis"
)

// RateLimit is the outcome of one counted request.
type RateLimit struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

type rateCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// RateLimiter counts API requests per client in fixed Redis windows. A
// disabled limiter admits everything.
type RateLimiter struct {
	counter rateCounter
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
}

func NewRateLimiter(redisClient *redis.Client, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if redisClient == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = redis.KeyPrefixRateLimit
	}

	return &RateLimiter{
		counter: redisClient,
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
	}
}

// Allow counts one request for client. The window starts with the first
// request and is not extended by later ones.
func (r *RateLimiter) Allow(ctx context.Context, client string) (RateLimit, error) {
	now := time.Now()
	if !r.enabled {
		return RateLimit{Allowed: true, Limit: r.limit, Remaining: r.limit, ResetAt: now.Add(r.window)}, nil
	}

	key := r.key(client)
	count, err := r.counter.Incr(ctx, key)
	if err != nil {
		return RateLimit{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}
	if count == 1 {
		if err := r.counter.Expire(ctx, key, r.window); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("Failed to set rate limit window")
		}
	}

	ttl, err := r.counter.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		ttl = r.window
	}

	return RateLimit{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: remaining(r.limit, count),
		ResetAt:   now.Add(ttl),
	}, nil
}

// Usage reports the current window for client without counting a request.
// ResetAt is zero when the client has no open window.
func (r *RateLimiter) Usage(ctx context.Context, client string) (used int64, status RateLimit, err error) {
	status = RateLimit{Allowed: true, Limit: r.limit, Remaining: r.limit}
	if !r.enabled {
		return 0, status, nil
	}

	key := r.key(client)
	used, err = r.counter.GetInt(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return 0, status, nil
		}
		return 0, status, fmt.Errorf("rate limiter read failed: %w", err)
	}

	if ttl, err := r.counter.TTL(ctx, key); err == nil && ttl > 0 {
		status.ResetAt = time.Now().Add(ttl)
	}
	status.Allowed = used < r.limit
	status.Remaining = remaining(r.limit, used)
	return used, status, nil
}

func (r *RateLimiter) key(client string) string {
	return redis.GenerateKey(r.prefix, strings.ReplaceAll(client, ":", "_"))
}

func remaining(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

func (r *RateLimiter) Limit() int64 { return r.limit }

func (r *RateLimiter) Enabled() bool { return r.enabled }

// ClientKey identifies the caller for rate limiting: the session when the
// browser has one, the client IP otherwise.
func ClientKey(r *http.Request, sessionID string) string {
	if sessionID != "" {
		return "sid_" + sessionID
	}
	return "ip_" + ClientIP(r)
}

// ClientIP prefers proxy headers over the socket address.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
