package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com/", 0, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.NotNil(t, client.logger)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", 1, nil)

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestLoadProducts_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "God of War Ragnarok", "category": "Jogo", "price": "299.90",
			 "tags": [{"name": "God of War", "weight": 4}, {"name": "PS5", "weight": "5"}, {"name": "Ação"}]},
			{"id": "abc", "name": "PlayStation 5", "category": "Console"}
		]`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 100, nil)

	products, err := client.LoadProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, 299.90, products[0].Price)
	require.Len(t, products[0].Tags, 3)
	assert.Equal(t, 4.0, products[0].Tags[0].Weight)
	assert.Equal(t, 5.0, products[0].Tags[1].Weight)
	assert.Equal(t, domain.DefaultTagWeight, products[0].Tags[2].Weight)
	assert.Equal(t, "abc", products[1].ID)
	assert.Empty(t, products[1].Tags)
}

func TestLoadProducts_Envelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products": [{"id": "p1", "name": "Zelda"}]}`))
	}))
	defer server.Close()

	products, err := NewClient("", server.URL, 100, nil).LoadProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Zelda", products[0].Name)
}

func TestLoadProducts_NotFound(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	products, err := NewClient("", server.URL, 100, nil).LoadProducts(context.Background())

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, int32(1), attempts.Load(), "404 must not be retried")
}

func TestLoadProducts_ServerError_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"id": "p1", "name": "Success after retry"}]`))
	}))
	defer server.Close()

	products, err := NewClient("", server.URL, 100, nil).LoadProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, "Success after retry", products[0].Name)
}

func TestLoadProducts_AllRetriesFail(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	products, err := NewClient("", server.URL, 100, nil).LoadProducts(context.Background())

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, int32(maxAttempts), attempts.Load())
}

func TestLoadProducts_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	_, err := NewClient("", server.URL, 100, nil).LoadProducts(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestLoadProducts_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("", server.URL, 100, nil).LoadProducts(ctx)
	assert.Error(t, err)
}
