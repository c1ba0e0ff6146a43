package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product id is not in the current catalog
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when a search result is not cached
	ErrCacheMiss = errors.New("cache miss")

	// ErrCatalogUnavailable is returned when the catalog source cannot be read
	ErrCatalogUnavailable = errors.New("catalog source unavailable")

	// ErrCatalogEmpty is returned when no catalog snapshot has been loaded yet
	ErrCatalogEmpty = errors.New("catalog not loaded")

	// ErrInvalidVocabulary is returned when vocabulary tables fail validation
	ErrInvalidVocabulary = errors.New("invalid vocabulary")
)
