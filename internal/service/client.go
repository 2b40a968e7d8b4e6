package service

import (
	"context"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/castmeta/mediawiki-scraper/internal/constants"
	"github.com/castmeta/mediawiki-scraper/internal/util"
	"github.com/castmeta/mediawiki-scraper/pkg/errors"
	"go.uber.org/zap"
)

// APIClient issues GET requests against MediaWiki endpoints with bounded
// retries and a per-host circuit breaker. All calls honor the request context.
type APIClient struct {
	httpClient  *http.Client
	maxAttempts int
	logger      *zap.Logger

	breakerMu sync.Mutex
	breakers  map[string]*util.CircuitBreaker
}

func NewAPIClient(httpClient *http.Client, maxAttempts int, logger *zap.Logger) *APIClient {
	if maxAttempts < 1 {
		maxAttempts = constants.RetryConfig.MaxAttempts
	}
	return &APIClient{
		httpClient:  httpClient,
		maxAttempts: maxAttempts,
		logger:      logger,
		breakers:    make(map[string]*util.CircuitBreaker),
	}
}

func (c *APIClient) breakerFor(host string) *util.CircuitBreaker {
	c.breakerMu.Lock()
	defer c.breakerMu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}
	cb := util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		c.logger,
	)
	c.breakers[host] = cb
	return cb
}

// GetJSON fetches rawURL with the given query params and returns the body when
// the endpoint answers 200 with a JSON content type. Transport errors and 5xx
// responses are retried with exponential backoff and jitter; non-JSON or 4xx
// responses fail immediately.
func (c *APIClient) GetJSON(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.NewAPIError("invalid endpoint URL", 0, map[string]any{"url": rawURL})
	}
	breaker := c.breakerFor(parsed.Host)
	if !breaker.CanExecute() {
		c.logger.Warn("Circuit breaker is open", zap.String("host", parsed.Host))
		return nil, errors.NewAPIError("circuit breaker open", 503, map[string]any{
			"host": parsed.Host,
		})
	}

	reqURL := rawURL
	if params != nil {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.computeDelay(attempt - 1)
			c.logger.Warn("Request failed, retrying",
				zap.Error(lastErr),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", constants.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			breaker.RecordFailure()
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			breaker.RecordFailure()
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = errors.NewAPIError("server error", resp.StatusCode, map[string]any{"url": reqURL})
			breaker.RecordFailure()
			continue
		}

		if resp.StatusCode != http.StatusOK {
			breaker.RecordSuccess()
			return nil, errors.NewAPIError("unexpected status", resp.StatusCode, map[string]any{"url": reqURL})
		}

		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(contentType, "json") {
			breaker.RecordSuccess()
			return nil, errors.NewAPIError("non-JSON response", resp.StatusCode, map[string]any{
				"url":          reqURL,
				"content_type": contentType,
			})
		}

		breaker.RecordSuccess()
		return body, nil
	}

	return nil, errors.NewAPIError("all attempts failed", 0, map[string]any{
		"url":      reqURL,
		"attempts": c.maxAttempts,
	}).WithCause(lastErr)
}

// Head reports whether a URL answers 2xx/3xx to a HEAD request. Used for image
// existence probes; any failure just means "absent".
func (c *APIClient) Head(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return resp.StatusCode < 400
}

func (c *APIClient) computeDelay(attempt int) time.Duration {
	base := constants.RetryConfig.BaseDelay
	jitter := constants.RetryConfig.Jitter

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	delay += time.Duration(rand.Int63n(int64(jitter)))
	return delay
}
