package usecase

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/vocabulary"
)

func newTestClassifier() *TokenClassifier {
	return NewTokenClassifier(vocabulary.MustDefault())
}

func newTestMatcher() *TagMatcher {
	return NewTagMatcher(newTestClassifier(), 0.8)
}

func newTestEngine(t *testing.T, config EngineConfig, opts ...EngineOption) *SearchEngine {
	t.Helper()
	engine, err := NewSearchEngine(vocabulary.MustDefault(), config, opts...)
	if err != nil {
		t.Fatalf("NewSearchEngine() error = %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func tag(name string, weight float64) domain.WeightedTag {
	return domain.WeightedTag{Name: name, Weight: weight}
}

func product(id, name, category string, tags ...domain.WeightedTag) domain.Product {
	return domain.Product{ID: id, Name: name, Category: category, Tags: tags}
}

func productIDs(scored []domain.ScoredProduct) []string {
	ids := make([]string, 0, len(scored))
	for _, sp := range scored {
		ids = append(ids, sp.Product.ID)
	}
	return ids
}

func analyzeQuery(query string) *queryAnalysis {
	return NewQueryAnalyzer(newTestClassifier(), 2).analyze(query)
}

func newTestLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// keepOrder is a shuffler that leaves the permutation untouched
func keepOrder(int, func(i, j int)) {}

// fakeCache records cache traffic
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*domain.SearchResult
	gets    int
	sets    int
	purges  int

	// onMiss runs once, outside the lock, on the first cache miss
	onMiss func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*domain.SearchResult{}}
}

func (c *fakeCache) Get(key string) (*domain.SearchResult, error) {
	c.mu.Lock()
	c.gets++
	result, ok := c.entries[key]
	hook := c.onMiss
	if !ok {
		c.onMiss = nil
	}
	c.mu.Unlock()

	if ok {
		return result, nil
	}
	if hook != nil {
		hook()
	}
	return nil, domain.ErrCacheMiss
}

func (c *fakeCache) Set(key string, result *domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = result
}

func (c *fakeCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purges++
	c.entries = map[string]*domain.SearchResult{}
}
