package graphql_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delegatedir/pkg/graphql"
)

func TestClientQuery(t *testing.T) {
	t.Parallel()

	t.Run("it posts the query envelope and returns the data payload", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var captured struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		var requestID string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID = r.Header.Get("X-Request-ID")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte(`{"data": {"delegates": []}}`))
			require.NoError(t, err)
		}))
		defer server.Close()

		client := graphql.NewClientWithHTTP(server.Client(), map[string]string{"gov": server.URL})

		// Act
		data, err := client.Query(context.Background(), "gov",
			"query { delegates { id } }", map[string]any{"first": 18})

		// Assert
		require.NoError(t, err)
		assert.JSONEq(t, `{"delegates": []}`, string(data))
		assert.Equal(t, "query { delegates { id } }", captured.Query)
		assert.Equal(t, float64(18), captured.Variables["first"])
		assert.NotEmpty(t, requestID, "every request carries a correlation id")
	})

	t.Run("it treats an unknown endpoint name as a literal URL", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": {}}`))
		}))
		defer server.Close()

		client := graphql.NewClientWithHTTP(server.Client(), nil)

		// Act
		_, err := client.Query(context.Background(), server.URL, "query {}", nil)

		// Assert
		require.NoError(t, err)
	})

	t.Run("it surfaces graphql errors from the envelope", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"errors": [{"message": "field missing"}, {"message": "bad cursor"}]}`))
		}))
		defer server.Close()

		client := graphql.NewClientWithHTTP(server.Client(), nil)

		// Act
		_, err := client.Query(context.Background(), server.URL, "query {}", nil)

		// Assert
		require.Error(t, err)
		assert.ErrorContains(t, err, "field missing")
		assert.ErrorContains(t, err, "bad cursor")
	})

	t.Run("it rejects non-200 responses", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := graphql.NewClientWithHTTP(server.Client(), nil)

		// Act
		_, err := client.Query(context.Background(), server.URL, "query {}", nil)

		// Assert
		assert.ErrorContains(t, err, "unexpected status code: 502")
	})
}

func TestRewriteEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("it rewrites hosted-service URLs to the gateway", func(t *testing.T) {
		t.Parallel()

		got := graphql.RewriteEndpoint("https://api.thegraph.com/subgraphs/name/governance/governor-bravo")

		assert.Equal(t, "https://gateway.thegraph.com/api/subgraphs/name/governance/governor-bravo", got)
	})

	t.Run("it passes other URLs through unchanged", func(t *testing.T) {
		t.Parallel()

		for _, url := range []string{
			"https://gateway.thegraph.com/api/subgraphs/name/governance/governor-bravo",
			"https://example.org/graphql",
			"",
		} {
			assert.Equal(t, url, graphql.RewriteEndpoint(url))
		}
	})
}
