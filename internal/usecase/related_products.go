package usecase

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/storefront/backend/internal/domain"
)

// RelatedProducts finds products similar to product by searching the rest of the
// catalog with the product's own name. When fewer than the configured minimum are
// found, the list is padded with randomly sampled products so it is never empty.
// maxResults <= 0 uses the configured default.
func (e *SearchEngine) RelatedProducts(product domain.Product, catalog []domain.Product, maxResults int) *domain.RelatedResult {
	if maxResults <= 0 {
		maxResults = e.relatedMax
	}

	self := identityKey(product)
	pool := make([]domain.Product, 0, len(catalog))
	for _, candidate := range catalog {
		if identityKey(candidate) == self || candidate.IsMaster() || !candidate.IsActive() {
			continue
		}
		pool = append(pool, candidate)
	}

	result := &domain.RelatedResult{
		Products:  []domain.Product{},
		Algorithm: domain.AlgorithmSearchBased,
		DebugInfo: domain.RelatedDebugInfo{
			Query:      product.Name,
			Candidates: len(pool),
		},
	}

	// The filtered pool is specific to this product, so the shared cache is bypassed
	var ranked []domain.ScoredProduct
	if q := e.analyzer.analyze(product.Name); !q.isEmpty() {
		found := e.search(product.Name, pool, 0, false)
		result.DebugInfo.ExactCount = len(found.ExactMatches)
		result.DebugInfo.RelatedCount = len(found.RelatedProducts)

		ranked = make([]domain.ScoredProduct, 0, found.Total())
		ranked = append(ranked, found.ExactMatches...)
		ranked = append(ranked, found.RelatedProducts...)
		sortRelated(ranked)
	}

	included := make(map[int]bool)
	indexOf := indexByIdentity(pool)
	for _, sp := range ranked {
		if len(result.Products) == maxResults {
			break
		}
		result.Products = append(result.Products, sp.Product)
		included[indexOf(sp.Product)] = true
	}
	result.DebugInfo.SearchMatches = len(result.Products)

	if len(result.Products) < e.relatedMin {
		remaining := make([]int, 0, len(pool))
		for i := range pool {
			if !included[i] {
				remaining = append(remaining, i)
			}
		}
		e.shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})

		for _, i := range remaining {
			if len(result.Products) == maxResults {
				break
			}
			result.Products = append(result.Products, pool[i])
			result.DebugInfo.FallbackCount++
		}
		if result.DebugInfo.FallbackCount > 0 {
			result.Algorithm = domain.AlgorithmFallback
		}
	}

	if e.debug {
		e.logger.WithFields(logrus.Fields{
			"product":   product.ID,
			"algorithm": result.Algorithm,
			"matches":   result.DebugInfo.SearchMatches,
			"fallback":  result.DebugInfo.FallbackCount,
		}).Debug("[RELATED] built related products")
	}

	return result
}

// sortRelated orders by score descending, then price ascending, then name
func sortRelated(ranked []domain.ScoredProduct) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.Product.Price != b.Product.Price {
			return a.Product.Price < b.Product.Price
		}
		return a.Product.Name < b.Product.Name
	})
}

// indexByIdentity maps a product back to its position in pool. Products are
// matched by ID, falling back to name for catalogs without IDs.
func indexByIdentity(pool []domain.Product) func(domain.Product) int {
	byKey := make(map[string]int, len(pool))
	for i := len(pool) - 1; i >= 0; i-- {
		byKey[identityKey(pool[i])] = i
	}
	return func(p domain.Product) int {
		if i, ok := byKey[identityKey(p)]; ok {
			return i
		}
		return -1
	}
}

func identityKey(p domain.Product) string {
	if p.ID != "" {
		return "id:" + p.ID
	}
	return "name:" + p.Name
}
