package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/storefront/backend/config"
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/usecase"
	"github.com/storefront/backend/internal/vocabulary"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	// Run tests
	exitCode := m.Run()

	// Exit with the test result code
	os.Exit(exitCode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"https://preview-*", "http://localhost:3000"},
		},
	}
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// setupTestRouter creates a test router without a catalog service
func setupTestRouter() *gin.Engine {
	handler := NewHandler(nil, testLogger())
	if handler == nil {
		panic("setupTestRouter: NewHandler returned nil")
	}

	router := SetupRouter(testConfig(), handler, testLogger())
	if router == nil {
		panic("setupTestRouter: SetupRouter returned nil *gin.Engine")
	}

	return router
}

// --- In-memory catalog source ---

type memorySource struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
}

func (s *memorySource) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products, s.err
}

func testCatalog() []domain.Product {
	tag := func(name string, weight float64) domain.WeightedTag {
		return domain.WeightedTag{Name: name, Weight: weight}
	}
	return []domain.Product{
		{ID: "z1", Name: "The Legend of Zelda: Tears of the Kingdom", Category: "Jogo", Price: 299.9,
			Tags: []domain.WeightedTag{tag("Zelda", 3), tag("Nintendo Switch", 1)}},
		{ID: "m1", Name: "Mario Kart 8 Deluxe", Category: "Jogo", Price: 249.9,
			Tags: []domain.WeightedTag{tag("Mario Kart", 3), tag("Nintendo Switch", 1)}},
		{ID: "ps5", Name: "PlayStation 5 Slim", Category: "Console", Price: 3799,
			Tags: []domain.WeightedTag{tag("PS5", 1)}},
		{ID: "sp2", Name: "Spider-Man 2", Category: "Jogo", Price: 199.9,
			Tags: []domain.WeightedTag{tag("Spider-Man", 3), tag("PS5", 1)}},
	}
}

// setupTestRouterWithService creates a test router backed by a real catalog service
func setupTestRouterWithService(t *testing.T, source *memorySource, loaded bool) *gin.Engine {
	t.Helper()

	engine, err := usecase.NewSearchEngine(vocabulary.MustDefault(), usecase.EngineConfig{}, usecase.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewSearchEngine() error = %v", err)
	}
	t.Cleanup(engine.Close)

	catalog := usecase.NewCatalogService(source, engine, testLogger())
	if loaded {
		if _, err := catalog.Reload(context.Background()); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
	}

	return SetupRouter(testConfig(), NewHandler(catalog, testLogger()), testLogger())
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return response
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		response := decodeBody(t, w)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "storefront-search" {
			t.Errorf("service = %v, want storefront-search", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("reports catalog snapshot", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		catalog, ok := decodeBody(t, w)["catalog"].(map[string]interface{})
		if !ok {
			t.Fatalf("catalog = %v, want object", catalog)
		}
		if catalog["products"] != float64(4) {
			t.Errorf("catalog.products = %v, want 4", catalog["products"])
		}
		if catalog["version"] != float64(1) {
			t.Errorf("catalog.version = %v, want 1", catalog["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		methods := []string{"POST", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestSearchEndpoint tests GET /api/v1/search
func TestSearchEndpoint(t *testing.T) {
	t.Run("returns ranked buckets", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

		req, _ := http.NewRequest("GET", "/api/v1/search?q=zelda", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		response := decodeBody(t, w)
		if response["total"] != float64(1) {
			t.Errorf("total = %v, want 1", response["total"])
		}
		exact, ok := response["exactMatches"].([]interface{})
		if !ok || len(exact) != 1 {
			t.Fatalf("exactMatches = %v, want one entry", response["exactMatches"])
		}
		first := exact[0].(map[string]interface{})
		product := first["product"].(map[string]interface{})
		if product["id"] != "z1" {
			t.Errorf("exactMatches[0].product.id = %v, want z1", product["id"])
		}
		if _, ok := first["debugBreakdown"]; !ok {
			t.Error("expected debugBreakdown in scored product")
		}
		if related, ok := response["relatedProducts"].([]interface{}); !ok || len(related) != 0 {
			t.Errorf("relatedProducts = %v, want empty array", response["relatedProducts"])
		}
	})

	t.Run("console leads platform query", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

		req, _ := http.NewRequest("GET", "/api/v1/search?q=PS5", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		exact := decodeBody(t, w)["exactMatches"].([]interface{})
		product := exact[0].(map[string]interface{})["product"].(map[string]interface{})
		if product["id"] != "ps5" {
			t.Errorf("first result = %v, want ps5", product["id"])
		}
	})

	t.Run("returns suggestions for misspellings", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

		req, _ := http.NewRequest("GET", "/api/v1/search?q=zelad", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		suggestions, _ := decodeBody(t, w)["tagSuggestions"].([]interface{})
		if len(suggestions) == 0 || suggestions[0] != "Zelda" {
			t.Errorf("tagSuggestions = %v, want [Zelda]", suggestions)
		}
	})

	t.Run("empty query lists the catalog", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

		req, _ := http.NewRequest("GET", "/api/v1/search", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if total := decodeBody(t, w)["total"]; total != float64(4) {
			t.Errorf("total = %v, want 4", total)
		}
	})

	t.Run("returns 503 before the catalog is loaded", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, false)

		req, _ := http.NewRequest("GET", "/api/v1/search?q=zelda", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		if decodeBody(t, w)["error"] == nil {
			t.Error("expected error field in response")
		}
	})

	t.Run("returns 503 without a catalog service", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/api/v1/search?q=zelda", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}

// TestRelatedEndpoint tests GET /api/v1/products/:id/related
func TestRelatedEndpoint(t *testing.T) {
	t.Run("returns related products", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

		req, _ := http.NewRequest("GET", "/api/v1/products/m1/related?limit=2", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		response := decodeBody(t, w)
		products, ok := response["products"].([]interface{})
		if !ok || len(products) == 0 || len(products) > 2 {
			t.Errorf("products = %v, want 1-2 entries", response["products"])
		}
		for _, p := range products {
			if p.(map[string]interface{})["id"] == "m1" {
				t.Error("related products include the product itself")
			}
		}
		if response["algorithm"] == nil || response["debugInfo"] == nil {
			t.Error("expected algorithm and debugInfo in response")
		}
	})

	t.Run("returns 404 for unknown product", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

		req, _ := http.NewRequest("GET", "/api/v1/products/missing/related", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("returns 400 for invalid limit", func(t *testing.T) {
		router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

		for _, limit := range []string{"abc", "0", "-3"} {
			req, _ := http.NewRequest("GET", "/api/v1/products/m1/related?limit="+limit, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: Status = %d, want %d", limit, w.Code, http.StatusBadRequest)
			}
		}
	})
}

// TestReloadEndpoint tests POST /api/v1/catalog/reload
func TestReloadEndpoint(t *testing.T) {
	t.Run("loads a new snapshot", func(t *testing.T) {
		source := &memorySource{products: testCatalog()}
		router := setupTestRouterWithService(t, source, true)

		source.mu.Lock()
		source.products = testCatalog()[:2]
		source.mu.Unlock()

		req, _ := http.NewRequest("POST", "/api/v1/catalog/reload", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		response := decodeBody(t, w)
		if response["version"] != float64(2) {
			t.Errorf("version = %v, want 2", response["version"])
		}
		if response["products"] != float64(2) {
			t.Errorf("products = %v, want 2", response["products"])
		}
	})

	t.Run("returns 502 when the source fails", func(t *testing.T) {
		source := &memorySource{products: testCatalog()}
		router := setupTestRouterWithService(t, source, true)

		source.mu.Lock()
		source.err = domain.ErrCatalogUnavailable
		source.mu.Unlock()

		req, _ := http.NewRequest("POST", "/api/v1/catalog/reload", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
		if decodeBody(t, w)["error"] != "catalog source temporarily unavailable" {
			t.Errorf("unexpected error message: %s", w.Body.String())
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for preview deployments", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://preview-7.storefront.dev")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "https://preview-7.storefront.dev" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "https://preview-7.storefront.dev")
		}

		gotCreds := w.Header().Get("Access-Control-Allow-Credentials")
		if gotCreds != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", gotCreds, "true")
		}
	})

	t.Run("search endpoint has CORS for localhost", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/api/v1/search?q=zelda", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "http://localhost:3000")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter()

		// Add a test route that panics
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		// This should not crash the test - recovery middleware should handle it
		router.ServeHTTP(w, req)

		// Gin's default recovery returns 500
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	t.Run("non-versioned routes return 404", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/api/search?q=zelda", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestRateLimitIntegration tests the per-IP limit on API routes
func TestRateLimitIntegration(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.PerIP = 1
	router := SetupRouter(cfg, NewHandler(nil, testLogger()), testLogger())

	codes := make([]int, 0, 3)
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/api/v1/search?q=zelda", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want %d", codes[1], http.StatusTooManyRequests)
	}

	// Health checks are not rate limited
	req, _ := http.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "192.0.2.10:5000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/api/v1/search?q=zelda"},
		{"GET", "/api/v1/products/z1/related"},
		{"POST", "/api/v1/catalog/reload"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouterWithService(t, &memorySource{products: testCatalog()}, true)

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			if err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}
