// Package polymarket provides a read-only client for the Polymarket
// Gamma and CLOB APIs.
package polymarket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// GammaBaseURL serves market metadata.
	GammaBaseURL = "https://gamma-api.polymarket.com"

	// ClobBaseURL serves order book prices.
	ClobBaseURL = "https://clob.polymarket.com"
)

// ErrMarketNotFound is returned when no market matches a slug.
var ErrMarketNotFound = errors.New("market not found")

// Client is a read-only Polymarket API client.
type Client struct {
	gammaURL   string
	clobURL    string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithGammaURL sets a custom Gamma API base URL.
func WithGammaURL(u string) Option {
	return func(c *Client) {
		c.gammaURL = u
	}
}

// WithClobURL sets a custom CLOB API base URL.
func WithClobURL(u string) Option {
	return func(c *Client) {
		c.clobURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a new client.
func New(opts ...Option) *Client {
	c := &Client{
		gammaURL:   GammaBaseURL,
		clobURL:    ClobBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get makes a GET request and returns the response body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return body, nil
}

func (c *Client) gammaQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return c.gammaURL + path
	}
	return c.gammaURL + path + "?" + params.Encode()
}

func (c *Client) clobQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return c.clobURL + path
	}
	return c.clobURL + path + "?" + params.Encode()
}

// APIError represents a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("polymarket api error %d: %s", e.StatusCode, e.Message)
}
