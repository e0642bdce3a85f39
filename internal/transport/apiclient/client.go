// Package apiclient is the JSON-over-HTTP plumbing shared by the provider adapters.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/metrics"
)

const maxErrorBody = 512

// MaxResponseBytes caps a provider response body. Larger bodies are an error.
const MaxResponseBytes = 8 << 20

// APIError is a non-2xx provider response.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap maps every provider failure onto domain.ErrProviderUnavailable.
func (e *APIError) Unwrap() error { return domain.ErrProviderUnavailable }

// Client issues GET requests against one provider.
type Client struct {
	http     *http.Client
	provider string
	baseURL  string
	headers  http.Header
	maxBody  int64
}

// New creates a Client. Headers are sent with every request.
func New(provider, baseURL string, timeout time.Duration, headers http.Header) *Client {
	if headers == nil {
		headers = http.Header{}
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		headers:  headers,
		maxBody:  MaxResponseBytes,
	}
}

// Provider returns the provider name used in errors and metrics.
func (c *Client) Provider() string { return c.provider }

// GetJSON decodes the response of GET base+path?params into out.
// extra headers are added on top of the client defaults.
func (c *Client) GetJSON(
	ctx context.Context, op, path string, params url.Values, extra http.Header, out any,
) error {
	body, err := c.Get(ctx, op, path, params, extra)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w: %w", c.provider, op, err, domain.ErrProviderUnavailable)
	}
	return nil
}

// Get returns the raw body of GET base+path?params.
func (c *Client) Get(
	ctx context.Context, op, path string, params url.Values, extra http.Header,
) (body []byte, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(c.provider, op, start, err) }()

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s %s: create request: %w", c.provider, op, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", c.provider, op, err, domain.ErrProviderUnavailable)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w: %w", c.provider, op, err, domain.ErrProviderUnavailable)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%s %s: response exceeds %d bytes: %w", c.provider, op, c.maxBody, domain.ErrProviderUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &APIError{Provider: c.provider, StatusCode: resp.StatusCode, Message: msg}
	}
	return body, nil
}
