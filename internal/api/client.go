// Package api is the authenticated client for the hotel partner backend.
package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"hotelpartner/internal/metrics"
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	AuthToken(ctx context.Context) (string, error)
}

// Options configures a Client.
type Options struct {
	BaseURL         string
	ProviderBaseURL string
	Timeout         time.Duration
	RatePerSecond   float64
	Burst           int
}

// Client calls the partner REST API.
type Client struct {
	baseURL         string
	providerBaseURL string
	httpClient      *http.Client
	tokens          TokenSource
	limiter         *rate.Limiter
	logger          zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client. A zero RatePerSecond disables limiting.
func NewClient(opts Options, tokens TokenSource, logger *zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "api").Logger()
	}
	return &Client{
		baseURL:         opts.BaseURL,
		providerBaseURL: opts.ProviderBaseURL,
		httpClient:      &http.Client{Timeout: timeout},
		tokens:          tokens,
		limiter:         limiter,
		logger:          l,
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// cacheKey scopes entries to the current token so two logins on one machine
// never share cached data.
func cacheKey(token, path string) string {
	sum := sha256.Sum256([]byte(token))
	return "hotelpartner:" + hex.EncodeToString(sum[:8]) + ":" + path
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// invalidate drops cached GET results for paths after a mutation.
func (c *Client) invalidate(ctx context.Context, paths ...string) {
	if c.redis == nil {
		return
	}
	token, err := c.token(ctx)
	if err != nil {
		return
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, cacheKey(token, p))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("cache invalidation failed")
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", ErrNoToken
	}
	token, err := c.tokens.AuthToken(ctx)
	if err != nil || token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// cachedGet serves an authenticated GET from the cache when possible. keep,
// when set, decides whether a fresh response is worth caching.
func (c *Client) cachedGet(ctx context.Context, path string, out any, keep func() bool) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	key := cacheKey(token, path)
	if c.readCache(ctx, key, out) {
		metrics.IncCacheHit(path)
		return nil
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+path, path, token, nil, nil, out); err != nil {
		return err
	}
	if keep == nil || keep() {
		c.writeCache(ctx, key, out)
	}
	return nil
}

// authPost sends an authenticated POST.
func (c *Client) authPost(ctx context.Context, path string, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, c.baseURL+path, path, token, nil, body, out)
}

func (c *Client) doJSON(
	ctx context.Context,
	method, endpoint, label, token string,
	headers http.Header,
	body, out any,
) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	c.addHeaders(req, token)
	return c.do(req, label, out)
}

func (c *Client) do(req *http.Request, label string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest(label, 0, time.Since(start))
		c.logger.Warn().Err(err).Str("endpoint", label).Msg("request failed")
		return err
	}
	defer resp.Body.Close()
	metrics.ObserveRequest(label, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
			BhID    string `json:"BhID"`
		}
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); readErr == nil && json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Message
			if apiErr.Message == "" {
				apiErr.Message = payload.Error
			}
			apiErr.BhID = payload.BhID
		}
		c.logger.Debug().
			Str("endpoint", label).
			Int("status", resp.StatusCode).
			Str("request_id", req.Header.Get("X-Request-ID")).
			Msg("backend returned error")
		return apiErr
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s: %w", label, err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
