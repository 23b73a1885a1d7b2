// Package vtclient is the outbound adapter for the external URL reputation
// service. The wire contract is a POST with the URL and an optional credential;
// anything other than a well-formed 2xx response is an error the caller treats
// as fail-open.
package vtclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout is the hard cap on one reputation lookup
const DefaultTimeout = 10 * time.Second

// Client calls the reputation service over HTTP
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures the client
type Option func(*Client)

// WithTimeout overrides the lookup timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithAPIKey attaches a credential to every lookup
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates a reputation client for the given endpoint
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lookupRequest struct {
	URL string `json:"url"`
}

type lookupResponse struct {
	Malicious *bool `json:"malicious"`
}

// Lookup asks the service whether a URL is malicious. It implements
// ports.ReputationService.
func (c *Client) Lookup(ctx context.Context, url string) (bool, error) {
	body, err := json.Marshal(lookupRequest{URL: url})
	if err != nil {
		return false, fmt.Errorf("failed to encode lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("reputation lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("reputation service returned status %d", resp.StatusCode)
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("failed to decode lookup response: %w", err)
	}
	if parsed.Malicious == nil {
		return false, fmt.Errorf("malformed lookup response: missing verdict")
	}
	return *parsed.Malicious, nil
}
