package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/usecase"
)

// CatalogService is the search surface the handlers depend on
type CatalogService interface {
	Search(ctx context.Context, query string) (*domain.SearchResult, error)
	Related(ctx context.Context, id string, maxResults int) (*domain.RelatedResult, error)
	Reload(ctx context.Context) (usecase.CatalogInfo, error)
	Info() usecase.CatalogInfo
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog CatalogService
	logger  *logrus.Entry
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog CatalogService, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		catalog: catalog,
		logger:  logger,
	}
}

// searchResponse adds the result count to a search result
type searchResponse struct {
	*domain.SearchResult
	Total int `json:"total"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"service": "storefront-search",
		"version": "1.0.0",
	}
	if h.catalog != nil {
		response["catalog"] = h.catalog.Info()
	}
	c.JSON(http.StatusOK, response)
}

// Search handles GET /api/v1/search?q=
func (h *Handler) Search(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	result, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, searchResponse{SearchResult: result, Total: result.Total()})
}

// Related handles GET /api/v1/products/:id/related?limit=
func (h *Handler) Related(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	result, err := h.catalog.Related(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReloadCatalog handles POST /api/v1/catalog/reload
func (h *Handler) ReloadCatalog(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	info, err := h.catalog.Reload(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog service not configured"})
		return false
	}
	return true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCatalogEmpty):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not loaded yet"})
	case errors.Is(err, domain.ErrCatalogUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog source temporarily unavailable"})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
