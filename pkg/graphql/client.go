// Package graphql provides a minimal GraphQL-over-HTTP client for querying
// governance subgraphs.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client executes GraphQL queries against named endpoints.
type Client struct {
	httpClient *http.Client
	endpoints  map[string]string
}

// NewClient creates a new Client with a default 30s HTTP timeout.
// The endpoints map translates endpoint names to subgraph URLs.
func NewClient(endpoints map[string]string) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: 30 * time.Second}, endpoints)
}

// NewClientWithHTTP creates a new Client with a custom HTTP client and endpoint map.
func NewClientWithHTTP(httpClient *http.Client, endpoints map[string]string) *Client {
	return &Client{
		httpClient: httpClient,
		endpoints:  endpoints,
	}
}

// request is the standard GraphQL POST envelope.
type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// response is the standard GraphQL response envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query executes a GraphQL query against the named endpoint and returns the
// raw data payload. Unknown endpoint names are treated as literal URLs, so
// callers may pass either. The legacy hosted-service rewrite is applied to
// every URL before the request goes out.
func (c *Client) Query(ctx context.Context, endpoint, query string, vars map[string]any) (json.RawMessage, error) {
	url, ok := c.endpoints[endpoint]
	if !ok {
		url = endpoint
	}
	url = RewriteEndpoint(url)

	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}

	return envelope.Data, nil
}
