package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/storefront/backend/internal/domain"
)

// CatalogInfo describes the snapshot currently being served
type CatalogInfo struct {
	Version  uint64    `json:"version"`
	Products int       `json:"products"`
	LoadedAt time.Time `json:"loadedAt"`
}

// CatalogService serves searches over the latest catalog snapshot.
// Flow: load snapshot from source -> swap -> invalidate cached results.
type CatalogService struct {
	source domain.CatalogSource
	engine *SearchEngine
	logger *logrus.Entry

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int
	info     CatalogInfo
	loaded   bool
}

// NewCatalogService creates a catalog service. The catalog is empty until Reload succeeds.
func NewCatalogService(source domain.CatalogSource, engine *SearchEngine, logger *logrus.Entry) *CatalogService {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CatalogService{
		source: source,
		engine: engine,
		logger: logger,
		byID:   map[string]int{},
	}
}

// Reload fetches a fresh snapshot and replaces the current one. On failure the
// previous snapshot keeps being served.
func (s *CatalogService) Reload(ctx context.Context) (CatalogInfo, error) {
	products, err := s.source.LoadProducts(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CATALOG] reload failed")
		return s.Info(), err
	}

	byID := make(map[string]int, len(products))
	for i, product := range products {
		if product.ID == "" {
			continue
		}
		if _, dup := byID[product.ID]; dup {
			s.logger.Warnf("[CATALOG] duplicate product id %q, keeping first", product.ID)
			continue
		}
		byID[product.ID] = i
	}

	s.mu.Lock()
	s.products = products
	s.byID = byID
	s.info = CatalogInfo{
		Version:  s.info.Version + 1,
		Products: len(products),
		LoadedAt: time.Now(),
	}
	s.loaded = true
	info := s.info
	s.mu.Unlock()

	s.engine.InvalidateCache()

	s.logger.WithFields(logrus.Fields{
		"version":  info.Version,
		"products": info.Products,
	}).Info("[CATALOG] snapshot loaded")

	return info, nil
}

// Run reloads the catalog every interval until ctx is done
func (s *CatalogService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Errors are logged by Reload; the old snapshot stays live
			_, _ = s.Reload(ctx)
		}
	}
}

// Info returns metadata about the current snapshot
func (s *CatalogService) Info() CatalogInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// snapshot returns the current products and their version. The slice is never
// mutated after a swap, so callers may read it without holding the lock.
func (s *CatalogService) snapshot() ([]domain.Product, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, 0, domain.ErrCatalogEmpty
	}
	return s.products, s.info.Version, nil
}

// Product looks up a product by id
func (s *CatalogService) Product(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return domain.Product{}, domain.ErrCatalogEmpty
	}
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return s.products[i], nil
}

// Search runs a query against the current snapshot
func (s *CatalogService) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	products, version, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.engine.SearchVersion(query, products, version), nil
}

// Related returns products related to the product with the given id
func (s *CatalogService) Related(ctx context.Context, id string, maxResults int) (*domain.RelatedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	product, err := s.Product(id)
	if err != nil {
		return nil, err
	}
	products, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.engine.RelatedProducts(product, products, maxResults), nil
}
