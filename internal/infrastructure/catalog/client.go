package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/storefront/backend/internal/domain"
)

const maxAttempts = 3

// Client reads catalog snapshots from the storefront backend's product API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *logrus.Entry
	debug       bool
}

// NewClient creates a new catalog API client. requestsPerSecond <= 0 uses 1 request per second.
func NewClient(apiKey, baseURL string, requestsPerSecond float64, logger *logrus.Entry) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), maxAttempts),
		logger:      logger,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Storefront-Search/1.0")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	return resp, nil
}

// LoadProducts fetches the full product snapshot, retrying transient failures
func (c *Client) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	reqURL := c.baseURL + "/products"

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			c.logger.Warnf("[CATALOG] request error (attempt %d): %v", attempt, err)
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s not found", domain.ErrCatalogUnavailable, reqURL)
		}
		if resp.StatusCode != http.StatusOK {
			c.logger.Warnf("[CATALOG] API error (attempt %d) - status: %d", attempt, resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
			continue
		}
		if readErr != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, readErr)
			continue
		}

		records, err := decodeJSON(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}

		if c.debug {
			c.logger.Debugf("[CATALOG] fetched %d products from %s", len(records), reqURL)
		}
		return mapToProducts(records), nil
	}

	c.logger.Errorf("[CATALOG] all %d attempts failed for %s", maxAttempts, reqURL)
	return nil, lastErr
}
