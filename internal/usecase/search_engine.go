package usecase

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/vocabulary"
)

// EngineConfig holds tuning parameters for the search engine
type EngineConfig struct {
	MinTokenLength           int
	TokenSimilarityThreshold float64
	EmptyQueryLimit          int
	ExactMatchRatio          float64
	SuggestionsPerToken      int
	RelatedMaxResults        int
	RelatedMinResults        int
	Workers                  int // Scoring goroutines; <= 1 scores sequentially
	ParallelThreshold        int // Minimum candidates before scoring is sharded
	EnableDebugLogging       bool
}

// Engine defaults
const (
	defaultEmptyQueryLimit   = 50
	defaultRelatedMaxResults = 8
	defaultRelatedMinResults = 3
	defaultParallelThreshold = 500
)

// EngineOption configures a SearchEngine
type EngineOption func(*SearchEngine) error

// WithCache injects a result cache. Without one every search is computed.
func WithCache(cache domain.ResultCache) EngineOption {
	return func(e *SearchEngine) error {
		e.cache = cache
		return nil
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *logrus.Entry) EngineOption {
	return func(e *SearchEngine) error {
		if logger == nil {
			logger = logrus.NewEntry(logrus.StandardLogger())
		}
		e.logger = logger
		return nil
	}
}

// WithShuffler replaces the random permutation used for related-products padding
func WithShuffler(shuffle func(n int, swap func(i, j int))) EngineOption {
	return func(e *SearchEngine) error {
		if shuffle == nil {
			return fmt.Errorf("%w: shuffler is nil", domain.ErrInvalidRequest)
		}
		e.shuffle = shuffle
		return nil
	}
}

// SearchEngine ranks a product catalog against free-text queries.
// It holds no catalog state; every call receives the snapshot to search.
type SearchEngine struct {
	analyzer    *QueryAnalyzer
	scorer      *ProductScorer
	partitioner *ResultPartitioner

	cache   domain.ResultCache
	pool    *ants.Pool
	shuffle func(n int, swap func(i, j int))
	logger  *logrus.Entry

	// generation is bumped by InvalidateCache; a search only stores its result
	// if no invalidation happened while it was running
	generation atomic.Uint64

	emptyQueryLimit   int
	relatedMax        int
	relatedMin        int
	workers           int
	parallelThreshold int
	debug             bool
}

// NewSearchEngine builds the full pipeline from a vocabulary
func NewSearchEngine(vocab *vocabulary.Vocabulary, config EngineConfig, opts ...EngineOption) (*SearchEngine, error) {
	if vocab == nil {
		return nil, fmt.Errorf("%w: vocabulary is required", domain.ErrInvalidVocabulary)
	}

	classifier := NewTokenClassifier(vocab)
	matcher := NewTagMatcher(classifier, config.TokenSimilarityThreshold)

	e := &SearchEngine{
		analyzer:          NewQueryAnalyzer(classifier, config.MinTokenLength),
		scorer:            NewProductScorer(matcher, NewConsoleClassifier(vocab)),
		partitioner:       NewResultPartitioner(config.ExactMatchRatio, config.SuggestionsPerToken),
		shuffle:           rand.Shuffle,
		logger:            logrus.NewEntry(logrus.StandardLogger()),
		emptyQueryLimit:   positiveOr(config.EmptyQueryLimit, defaultEmptyQueryLimit),
		relatedMax:        positiveOr(config.RelatedMaxResults, defaultRelatedMaxResults),
		relatedMin:        positiveOr(config.RelatedMinResults, defaultRelatedMinResults),
		workers:           config.Workers,
		parallelThreshold: positiveOr(config.ParallelThreshold, defaultParallelThreshold),
		debug:             config.EnableDebugLogging,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.workers > 1 {
		pool, err := ants.NewPool(e.workers)
		if err != nil {
			return nil, fmt.Errorf("failed to create scoring pool: %w", err)
		}
		e.pool = pool
	}

	return e, nil
}

// Close releases the scoring pool
func (e *SearchEngine) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// InvalidateCache drops every cached result. Call it whenever the catalog snapshot changes.
func (e *SearchEngine) InvalidateCache() {
	e.generation.Add(1)
	if e.cache != nil {
		e.cache.Purge()
	}
}

// AnalyzeQuery exposes the classified tokens the engine derives from a query
func (e *SearchEngine) AnalyzeQuery(query string) []domain.Token {
	return e.analyzer.Tokens(query)
}

// Search ranks catalog against query. It never fails: an empty query lists the
// catalog, a query nothing matches yields empty buckets.
func (e *SearchEngine) Search(query string, catalog []domain.Product) *domain.SearchResult {
	return e.search(query, catalog, 0, true)
}

// SearchVersion is Search for a versioned catalog snapshot. Cached results are
// keyed by version, so results computed on an older snapshot are never served
// for a newer one.
func (e *SearchEngine) SearchVersion(query string, catalog []domain.Product, version uint64) *domain.SearchResult {
	return e.search(query, catalog, version, true)
}

func (e *SearchEngine) search(query string, catalog []domain.Product, version uint64, useCache bool) *domain.SearchResult {
	q := e.analyzer.analyze(query)
	generation := e.generation.Load()

	var cacheKey string
	if useCache && e.cache != nil {
		cacheKey = generateCacheKey(q.normalized, len(catalog), version)
		if cached, err := e.cache.Get(cacheKey); err == nil {
			if e.debug {
				e.logger.Debugf("[SEARCH] cache hit: %q", cacheKey)
			}
			return cached
		}
	}

	candidates := make([]domain.Product, 0, len(catalog))
	for _, product := range catalog {
		if !product.IsMaster() {
			candidates = append(candidates, product)
		}
	}

	var result *domain.SearchResult
	if q.isEmpty() {
		result = e.listCatalog(query, candidates)
	} else {
		scored := e.scoreAll(q, candidates)
		exact, related := e.partitioner.partition(q, scored)
		result = &domain.SearchResult{
			Query:           query,
			ExactMatches:    exact,
			RelatedProducts: related,
			TagSuggestions:  e.partitioner.suggestions(q, candidates, scored),
		}
	}

	if e.debug {
		e.logger.WithFields(logrus.Fields{
			"query":       q.normalized,
			"candidates":  len(candidates),
			"exact":       len(result.ExactMatches),
			"related":     len(result.RelatedProducts),
			"suggestions": len(result.TagSuggestions),
		}).Debug("[SEARCH] ranked catalog")
	}

	if cacheKey != "" {
		if e.generation.Load() != generation {
			if e.debug {
				e.logger.Debugf("[SEARCH] cache invalidated mid-search, not storing %q", cacheKey)
			}
			return result
		}
		e.cache.Set(cacheKey, result)
	}
	return result
}

// listCatalog answers an empty query with the first products of the catalog
func (e *SearchEngine) listCatalog(query string, candidates []domain.Product) *domain.SearchResult {
	limit := min(len(candidates), e.emptyQueryLimit)
	exact := make([]domain.ScoredProduct, 0, limit)
	for _, product := range candidates[:limit] {
		exact = append(exact, domain.ScoredProduct{
			Product:     product,
			MatchedTags: []string{},
		})
	}

	return &domain.SearchResult{
		Query:           query,
		ExactMatches:    exact,
		RelatedProducts: []domain.ScoredProduct{},
		TagSuggestions:  []string{},
	}
}

// scoreAll scores every candidate. Large catalogs are sharded by index across the
// worker pool; each slot is written by exactly one task, so output order is fixed.
func (e *SearchEngine) scoreAll(q *queryAnalysis, candidates []domain.Product) []domain.ScoredProduct {
	scored := make([]domain.ScoredProduct, len(candidates))

	scoreRange := func(start, end int) {
		for i := start; i < end; i++ {
			scored[i] = e.scorer.score(q, &candidates[i])
		}
	}

	if e.pool == nil || len(candidates) < e.parallelThreshold {
		scoreRange(0, len(candidates))
		return scored
	}

	shard := (len(candidates) + e.workers - 1) / e.workers
	var wg sync.WaitGroup
	for start := 0; start < len(candidates); start += shard {
		end := min(start+shard, len(candidates))
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			scoreRange(start, end)
		})
		if err != nil {
			wg.Done()
			e.logger.Warnf("[SEARCH] pool rejected shard %d-%d, scoring inline: %v", start, end, err)
			scoreRange(start, end)
		}
	}
	wg.Wait()

	return scored
}

// generateCacheKey creates the result cache key.
// Format: "search:{normalized_query}:{catalog_size}:v{catalog_version}"
func generateCacheKey(normalizedQuery string, catalogSize int, version uint64) string {
	return fmt.Sprintf("search:%s:%d:v%d", normalizedQuery, catalogSize, version)
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
