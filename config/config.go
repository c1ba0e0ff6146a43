package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Search    SearchConfig
	Cache     CacheConfig
	Related   RelatedConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`
}

// CatalogConfig holds catalog source configuration
type CatalogConfig struct {
	Source            string        `mapstructure:"source"` // "file" or "http"
	Path              string        `mapstructure:"path"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// SearchConfig holds search engine tuning
type SearchConfig struct {
	MinTokenLength           int     `mapstructure:"min_token_length"`
	TokenSimilarityThreshold float64 `mapstructure:"token_similarity_threshold"`
	EmptyQueryLimit          int     `mapstructure:"empty_query_limit"`
	ExactMatchRatio          float64 `mapstructure:"exact_match_ratio"`
	SuggestionsPerToken      int     `mapstructure:"suggestions_per_token"`
	VocabularyPath           string  `mapstructure:"vocabulary_path"`
	Workers                  int     `mapstructure:"workers"`
	ParallelThreshold        int     `mapstructure:"parallel_threshold"`
	Debug                    bool    `mapstructure:"debug"`
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RelatedConfig holds related-products configuration
type RelatedConfig struct {
	MaxResults int `mapstructure:"max_results"`
	MinResults int `mapstructure:"min_results"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/storefront/")

	// Environment variable settings
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads variables from ./.env when present. Variables already set in
// the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.log_level", "info")

	// Catalog defaults
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.path", "./data/catalog.json")
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("catalog.refresh_interval", "5m")
	v.SetDefault("catalog.requests_per_second", 1.0)

	// Search defaults
	v.SetDefault("search.min_token_length", 2)
	v.SetDefault("search.token_similarity_threshold", 0.8)
	v.SetDefault("search.empty_query_limit", 50)
	v.SetDefault("search.exact_match_ratio", 0.5)
	v.SetDefault("search.suggestions_per_token", 3)
	v.SetDefault("search.vocabulary_path", "")
	v.SetDefault("search.workers", 4)
	v.SetDefault("search.parallel_threshold", 500)
	v.SetDefault("search.debug", false)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.ttl", "10m")

	// Related defaults
	v.SetDefault("related.max_results", 8)
	v.SetDefault("related.min_results", 3)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Source {
	case "file":
		if config.Catalog.Path == "" {
			return fmt.Errorf("catalog path is required when catalog source is 'file' (set STOREFRONT_CATALOG_PATH)")
		}
	case "http":
		if config.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog base URL is required when catalog source is 'http' (set STOREFRONT_CATALOG_BASE_URL)")
		}
	default:
		return fmt.Errorf("catalog source must be 'file' or 'http', got: %s", config.Catalog.Source)
	}

	if config.Search.MinTokenLength < 1 {
		return fmt.Errorf("search min token length must be at least 1, got: %d", config.Search.MinTokenLength)
	}
	if t := config.Search.TokenSimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("search token similarity threshold must be in (0, 1], got: %v", t)
	}
	if r := config.Search.ExactMatchRatio; r <= 0 || r > 1 {
		return fmt.Errorf("search exact match ratio must be in (0, 1], got: %v", r)
	}
	if config.Related.MaxResults < 1 {
		return fmt.Errorf("related max results must be at least 1, got: %d", config.Related.MaxResults)
	}
	if config.Related.MinResults < 0 || config.Related.MinResults > config.Related.MaxResults {
		return fmt.Errorf("related min results must be between 0 and max results, got: %d", config.Related.MinResults)
	}

	return nil
}
