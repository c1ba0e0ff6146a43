package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/storefront/backend/config"
	httpDelivery "github.com/storefront/backend/internal/delivery/http"
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/catalog"
	"github.com/storefront/backend/internal/usecase"
	"github.com/storefront/backend/internal/vocabulary"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Server)

	logger.Infof("Starting Storefront Search v1.0.0")
	logger.Infof("Environment: %s", cfg.Server.Environment)
	logger.Infof("Port: %s", cfg.Server.Port)

	vocab, err := loadVocabulary(cfg.Search.VocabularyPath)
	if err != nil {
		logger.Fatalf("Failed to load vocabulary: %v", err)
	}
	logger.WithFields(toFields(vocab.Stats())).Info("Vocabulary loaded")

	// Initialize search engine
	opts := []usecase.EngineOption{usecase.WithLogger(logger.WithField("component", "search"))}
	if cfg.Cache.Enabled {
		opts = append(opts, usecase.WithCache(cache.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL)))
		logger.Infof("Result cache: size=%d ttl=%s", cfg.Cache.Size, cfg.Cache.TTL)
	}

	engine, err := usecase.NewSearchEngine(vocab, usecase.EngineConfig{
		MinTokenLength:           cfg.Search.MinTokenLength,
		TokenSimilarityThreshold: cfg.Search.TokenSimilarityThreshold,
		EmptyQueryLimit:          cfg.Search.EmptyQueryLimit,
		ExactMatchRatio:          cfg.Search.ExactMatchRatio,
		SuggestionsPerToken:      cfg.Search.SuggestionsPerToken,
		RelatedMaxResults:        cfg.Related.MaxResults,
		RelatedMinResults:        cfg.Related.MinResults,
		Workers:                  cfg.Search.Workers,
		ParallelThreshold:        cfg.Search.ParallelThreshold,
		EnableDebugLogging:       cfg.Search.Debug,
	}, opts...)
	if err != nil {
		logger.Fatalf("Failed to create search engine: %v", err)
	}
	defer engine.Close()

	logger.Infof("Search: min_token_length=%d similarity=%.2f exact_ratio=%.2f workers=%d debug=%v",
		cfg.Search.MinTokenLength,
		cfg.Search.TokenSimilarityThreshold,
		cfg.Search.ExactMatchRatio,
		cfg.Search.Workers,
		cfg.Search.Debug)

	// Initialize catalog
	source := newCatalogSource(cfg, logger.WithField("component", "catalog"))
	catalogService := usecase.NewCatalogService(source, engine, logger.WithField("component", "catalog"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := catalogService.Reload(ctx); err != nil {
		logger.Fatalf("Failed to load initial catalog: %v", err)
	}
	go catalogService.Run(ctx, cfg.Catalog.RefreshInterval)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalogService, logger.WithField("component", "http"))

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger.WithField("component", "http"))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}

func newLogger(cfg config.ServerConfig) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logrus.NewEntry(logger).WithField("service", "storefront-search")
}

func loadVocabulary(path string) (*vocabulary.Vocabulary, error) {
	if path == "" {
		return vocabulary.Default()
	}
	return vocabulary.Load(path)
}

func newCatalogSource(cfg *config.Config, logger *logrus.Entry) domain.CatalogSource {
	if cfg.Catalog.Source == "http" {
		client := catalog.NewClient(cfg.Catalog.APIKey, cfg.Catalog.BaseURL, cfg.Catalog.RequestsPerSecond, logger)

		// Enable debug mode in development environment
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
		}
		if cfg.Catalog.APIKey == "" {
			logger.Warnf("Catalog API configured: %s (key: NOT CONFIGURED)", cfg.Catalog.BaseURL)
		} else {
			logger.Infof("Catalog API configured: %s", cfg.Catalog.BaseURL)
		}
		return client
	}

	logger.Infof("Catalog file: %s", cfg.Catalog.Path)
	return catalog.NewFileSource(cfg.Catalog.Path, logger)
}

func toFields(stats map[string]int) logrus.Fields {
	fields := make(logrus.Fields, len(stats))
	for k, v := range stats {
		fields[k] = v
	}
	return fields
}
