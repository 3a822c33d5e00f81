package ens_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delegatedir/pkg/ens"
)

const checksummedAddr = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("it short-circuits literal addresses without a network call", func(t *testing.T) {
		t.Parallel()

		// Arrange - any network call fails the test
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("resolver must not be called for a literal address")
		}))
		defer server.Close()

		client := ens.NewClientWithHTTP(server.Client(), server.URL)

		// Act
		addr, ok, err := client.Resolve(context.Background(), checksummedAddr)

		// Assert
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", addr)
	})

	t.Run("it resolves a name to a lower-cased address", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/resolve/vitalik.eth", r.URL.Path)
			_, _ = w.Write([]byte(`{"address": "` + checksummedAddr + `"}`))
		}))
		defer server.Close()

		client := ens.NewClientWithHTTP(server.Client(), server.URL)

		// Act
		addr, ok, err := client.Resolve(context.Background(), "vitalik.eth")

		// Assert
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", addr)
	})

	t.Run("it reports an unknown name as unresolved, not an error", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := ens.NewClientWithHTTP(server.Client(), server.URL)

		// Act
		addr, ok, err := client.Resolve(context.Background(), "unknown.eth")

		// Assert
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, addr)
	})

	t.Run("it propagates unexpected HTTP failures", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := ens.NewClientWithHTTP(server.Client(), server.URL)

		// Act
		_, _, err := client.Resolve(context.Background(), "vitalik.eth")

		// Assert
		assert.ErrorContains(t, err, "unexpected status code: 500")
	})
}

func TestIsAddress(t *testing.T) {
	t.Parallel()

	assert.True(t, ens.IsAddress(checksummedAddr))
	assert.True(t, ens.IsAddress("0x0000000000000000000000000000000000000000"))
	assert.False(t, ens.IsAddress("vitalik.eth"))
	assert.False(t, ens.IsAddress("0x1234"))
	assert.False(t, ens.IsAddress("0xZZ5801a7d398351b8be11c439e05c5b3259aec9b"))
}
