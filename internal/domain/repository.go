package domain

import "context"

// ResultCache stores search results keyed by normalized query and catalog size.
// It is advisory: search output must not depend on whether it is present.
type ResultCache interface {
	Get(key string) (*SearchResult, error)
	Set(key string, result *SearchResult)
	Purge()
}

// CatalogSource provides read-only product snapshots
type CatalogSource interface {
	LoadProducts(ctx context.Context) ([]Product, error)
}
