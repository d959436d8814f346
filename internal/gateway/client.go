package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/redis"
)

const maxResponseBytes = 10 << 20

// Cache stores decoded backend payloads for anonymous reads.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// CacheTTLs configures how long each class of read stays cached.
type CacheTTLs struct {
	Listing    time.Duration
	Product    time.Duration
	FlashSale  time.Duration
	Bestseller time.Duration
}

// Client calls the backend REST API. Every call takes the caller's bearer
// token; an empty token makes an anonymous request.
type Client struct {
	baseURL string
	http    *http.Client
	cache   Cache
	ttl     CacheTTLs
	log     *logger.Logger
}

// envelope is the response wrapper used by every backend endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// New builds a client. cache may be nil to disable response caching.
func New(cfg *config.BackendConfig, cacheCfg *config.CacheConfig, cache Cache, log *logger.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		log:     log,
	}
	if cacheCfg != nil {
		c.ttl = CacheTTLs{
			Listing:    time.Duration(cacheCfg.ListingTTL) * time.Second,
			Product:    time.Duration(cacheCfg.ProductTTL) * time.Second,
			FlashSale:  time.Duration(cacheCfg.FlashSaleTTL) * time.Second,
			Bestseller: time.Duration(cacheCfg.BestsellerTTL) * time.Second,
		}
	}
	return c
}

// BaseURL is the backend API root, e.g. http://localhost:5000/api/v1.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	query       url.Values
	token       string
	body        io.Reader
	contentType string
}

func jsonRequest(method, path, token string, payload interface{}) (*request, error) {
	req := &request{method: method, path: path, token: token}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return req, nil
}

// send performs the call and returns the envelope's data field.
func (c *Client) send(ctx context.Context, r *request) (json.RawMessage, error) {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(map[string]interface{}{
			"method": r.method,
			"path":   r.path,
		}).Warn("Backend request failed")
		return nil, apperror.Network("Unable to reach the store service. Please try again.", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperror.Network("Connection to the store service was interrupted.", err)
	}

	c.log.WithFields(map[string]interface{}{
		"method":      r.method,
		"path":        r.path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Backend request completed")

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, env)
	}
	if decodeErr != nil {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, nil
		}
		return nil, apperror.Upstream(resp.StatusCode, "Unexpected response from the store service", decodeErr)
	}
	return env.Data, nil
}

func statusError(status int, env envelope) error {
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := fmt.Errorf("backend responded %d", status)

	switch status {
	case http.StatusUnauthorized:
		return apperror.Unauthorized(msg, cause)
	case http.StatusForbidden:
		return apperror.Forbidden(msg, cause)
	case http.StatusNotFound:
		return apperror.NotFound(msg, cause)
	case http.StatusConflict:
		return apperror.Conflict(msg, cause)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperror.Validation(msg, cause)
	default:
		return apperror.Upstream(status, msg, cause)
	}
}

// call sends r and decodes the data field into out when out is non-nil.
func (c *Client) call(ctx context.Context, r *request, out interface{}) error {
	data, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	return decodeData(data, out)
}

func decodeData(data json.RawMessage, out interface{}) error {
	if out == nil {
		return nil
	}
	if len(data) == 0 {
		return apperror.Upstream(http.StatusOK, "Unexpected response from the store service", errors.New("empty data"))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperror.Upstream(http.StatusOK, "Unexpected response from the store service", err)
	}
	return nil
}

func cacheKey(path string, query url.Values) string {
	return redis.GenerateKey(redis.KeyPrefixGateway, path+"?"+query.Encode())
}

// cachedGet serves anonymous GETs from the cache when possible. Cache
// failures are logged and fall through to the backend.
func (c *Client) cachedGet(ctx context.Context, path string, query url.Values, token string, ttl time.Duration, out interface{}) error {
	useCache := c.cache != nil && token == "" && ttl > 0
	key := cacheKey(path, query)

	if useCache {
		var cached json.RawMessage
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			return decodeData(cached, out)
		} else if !errors.Is(err, redis.ErrNotFound) {
			c.log.WithError(err).WithField("key", key).Warn("Gateway cache read failed")
		}
	}

	data, err := c.send(ctx, &request{method: http.MethodGet, path: path, query: query, token: token})
	if err != nil {
		return err
	}
	if err := decodeData(data, out); err != nil {
		return err
	}

	if useCache {
		if err := c.cache.Set(ctx, key, data, ttl); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("Gateway cache write failed")
		}
	}
	return nil
}

// InvalidateCache drops every cached backend response.
func (c *Client) InvalidateCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	n, err := c.cache.DeleteByPrefix(ctx, redis.KeyPrefixGateway+":")
	if err != nil {
		return fmt.Errorf("failed to invalidate gateway cache: %w", err)
	}
	c.log.WithField("count", n).Info("Gateway cache invalidated")
	return nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products?limit=1", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("backend responded %d", resp.StatusCode)
	}
	return nil
}
