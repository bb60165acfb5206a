// Package rest holds the rate limited, retrying JSON transport shared by the catalog clients.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"tuneharvest/internal/shared"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 3
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 30 * time.Second
)

// Config holds transport settings for one remote API
type Config struct {
	BaseURL      string        `json:"base_url"`
	UserAgent    string        `json:"user_agent"`
	Timeout      time.Duration `json:"timeout"`
	MaxRetries   int           `json:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	RateLimit    time.Duration `json:"rate_limit"` // minimum spacing between requests, 0 disables limiting
	BurstLimit   int           `json:"burst_limit"`
}

// DefaultConfig returns transport defaults for baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		UserAgent:    shared.UserAgent,
		Timeout:      defaultTimeout,
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
	}
}

// Client is a JSON-over-HTTP client with rate limiting and retry on transient errors
type Client struct {
	httpClient  *http.Client
	config      Config
	rateLimiter *rate.Limiter
	logger      *log.Logger
}

// NewClient creates a client; a nil logger discards debug output
func NewClient(config Config, logger *log.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = shared.UserAgent
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RateLimit > 0 {
		burst := config.BurstLimit
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(config.RateLimit), burst)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout},
		config:      config,
		rateLimiter: limiter,
		logger:      logger,
	}
}

// GetConfig returns the current client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// HTTPClient exposes the underlying client for SDKs that need one
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// URL joins path and query parameters onto the base URL
func (c *Client) URL(path string, params url.Values) string {
	u := strings.TrimRight(c.config.BaseURL, "/")
	if path != "" {
		u += "/" + strings.TrimLeft(path, "/")
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) makeRequest(ctx context.Context, method, reqURL string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// do makes a single rate limited request
func (c *Client) do(ctx context.Context, method, reqURL string, payload []byte) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := c.makeRequest(ctx, method, reqURL, payload)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &shared.HTTPError{
				StatusCode: http.StatusGatewayTimeout,
				Status:     "Gateway Timeout",
				Message:    err.Error(),
			}
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    shared.TruncateString(string(body), 200),
		}
	}
	return body, nil
}

// Get fetches path from the base URL, retrying 429 and 5xx gateway errors with backoff
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.withRetry(ctx, http.MethodGet, c.URL(path, params), nil)
}

// Fetch gets an absolute URL with the same rate limiting and retry policy
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return c.withRetry(ctx, http.MethodGet, rawURL, nil)
}

// PostJSON sends in as a JSON body and decodes the JSON reply into out
func (c *Client) PostJSON(ctx context.Context, path string, params url.Values, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	body, err := c.withRetry(ctx, http.MethodPost, c.URL(path, params), payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", c.config.BaseURL, err)
	}
	return nil
}

func (c *Client) withRetry(ctx context.Context, method, reqURL string, payload []byte) ([]byte, error) {
	var result []byte
	err := shared.RetryWithBackoffForHTTPWithDebug(
		c.config.MaxRetries,
		c.config.InitialDelay,
		c.config.MaxDelay,
		func() error {
			var err error
			result, err = c.do(ctx, method, reqURL, payload)
			return err
		},
		func(attempt int, err error, wait time.Duration) {
			c.logger.Debug("retrying request", "method", method, "url", reqURL, "attempt", attempt, "wait", wait, "err", err)
		},
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetJSON fetches path and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", c.config.BaseURL, err)
	}
	return nil
}
