// Package ens resolves human-readable names to canonical addresses.
package ens

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client resolves names through an HTTP resolution service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a resolver client with a default 30s HTTP timeout.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: 30 * time.Second}, baseURL)
}

// NewClientWithHTTP creates a resolver client with a custom HTTP client and base URL.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// Resolve maps a human identifier to a canonical lower-cased address.
// A literal hex address short-circuits without a network call. An identifier
// the service does not know yields ok=false with no error.
func (c *Client) Resolve(ctx context.Context, name string) (addr string, ok bool, err error) {
	if IsAddress(name) {
		return strings.ToLower(name), true, nil
	}

	reqURL := fmt.Sprintf("%s/resolve/%s", c.baseURL, url.PathEscape(name))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", false, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("decoding response: %w", err)
	}
	if body.Address == "" {
		return "", false, nil
	}

	return strings.ToLower(body.Address), true, nil
}

// IsAddress reports whether s is a literal 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
