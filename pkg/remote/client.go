// Package remote implements the generic HTTP fetch client: an ordered list of
// base URLs tried in sequence, per-base retry with capped exponential
// backoff, client-side rate limiting, and a per-endpoint static fallback
// registry consulted only when every base URL is exhausted.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vakitapp/vakit-agent/internal/utils"
)

// ErrRemoteUnavailable is raised only when all base URLs are exhausted and no
// static fallback exists for the endpoint. It is the one condition allowed to
// surface to the caller as a user-visible error.
var ErrRemoteUnavailable = errors.New("remote service unavailable")

// Endpoint names a remote resource. Key identifies the endpoint for fallback
// registration and stays stable across dates and query parameters; Path is
// the concrete request path.
type Endpoint struct {
	Key   string
	Path  string
	Query url.Values
}

// Client fetches from an ordered list of candidate base URLs.
type Client struct {
	baseURLs   []string
	httpClient *http.Client
	policy     utils.RetryPolicy
	limiter    *rate.Limiter
	fallbacks  cmap.ConcurrentMap[string, []byte]
	logger     zerolog.Logger
}

// NewClient builds a client over the given base URLs (primary first, then
// mirrors). The retry policy applies per base URL.
func NewClient(baseURLs []string, policy utils.RetryPolicy, logger zerolog.Logger) *Client {
	if policy.MaxAttempts == 0 {
		policy = utils.DefaultRetryPolicy()
	}

	return &Client{
		baseURLs:   baseURLs,
		httpClient: &http.Client{},
		policy:     policy,
		limiter:    rate.NewLimiter(5, 10),
		fallbacks:  cmap.New[[]byte](),
		logger:     logger,
	}
}

// RegisterFallback installs a static payload returned for the endpoint key
// when every base URL fails.
func (c *Client) RegisterFallback(key string, payload []byte) {
	c.fallbacks.Set(key, payload)
}

// Get fetches the endpoint, trying each base URL in order with retry and
// backoff. The first success short-circuits everything remaining. On total
// exhaustion the static fallback for the endpoint key is returned if one is
// registered, otherwise ErrRemoteUnavailable.
func (c *Client) Get(ctx context.Context, ep Endpoint) ([]byte, error) {
	var lastErr error

	for _, base := range c.baseURLs {
		reqURL := buildURL(base, ep)

		body, err := utils.WithRetry(ctx, c.policy, c.policy.ExponentialBackoff(), func(ctx context.Context) ([]byte, error) {
			return c.fetch(ctx, reqURL)
		})
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}

		c.logger.Warn().Err(err).Str("base_url", base).Str("endpoint", ep.Key).Msg("Base URL exhausted, trying next")
	}

	if payload, ok := c.fallbacks.Get(ep.Key); ok {
		c.logger.Warn().Str("endpoint", ep.Key).Msg("All base URLs failed, serving static fallback")
		return payload, nil
	}

	return nil, fmt.Errorf("%w: endpoint %s: %v", ErrRemoteUnavailable, ep.Key, lastErr)
}

// fetch performs one rate-limited HTTP GET bounded by ctx.
func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, reqURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func buildURL(base string, ep Endpoint) string {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ep.Path, "/")
	if len(ep.Query) > 0 {
		u += "?" + ep.Query.Encode()
	}
	return u
}
