// Package config provides configuration loading for vicd.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. Every section has hardcoded defaults so the daemon starts
// with no configuration at all.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lostlondon/vicd/internal/logging"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete vicd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Auth       AuthConfig       `koanf:"auth"`
	Session    SessionConfig    `koanf:"session"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Generation GenerationConfig `koanf:"generation"`
	Embedding  EmbeddingConfig  `koanf:"embedding"`
	Logging    logging.Config   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// AuthConfig holds boundary authentication configuration.
//
// An empty Token disables authentication (development mode), matching
// the behavior of the speech front-end's CLM integration.
type AuthConfig struct {
	Token string `koanf:"token"`
}

// SessionConfig holds session store configuration.
type SessionConfig struct {
	// Capacity bounds the number of live sessions. The least recently
	// active session is evicted when the bound would be exceeded.
	Capacity int `koanf:"capacity"`

	// ReturningAfter is how long a session must be idle before the
	// next turn is greeted as a returning user.
	ReturningAfter time.Duration `koanf:"returning_after"`
}

// RetrievalConfig holds hybrid retrieval configuration.
type RetrievalConfig struct {
	// Backend selects the vector store: "qdrant" for a Qdrant server,
	// "chromem" for the embedded on-disk store.
	Backend string `koanf:"backend"`

	// ArticlesPath is a JSON file with the article corpus. It feeds
	// the keyword index, and the chromem backend when selected. Empty
	// means no local corpus.
	ArticlesPath string `koanf:"articles_path"`

	// ChromemPath is the chromem backend's on-disk location. Empty
	// means in-memory.
	ChromemPath string `koanf:"chromem_path"`

	// Limit is the number of fused candidates handed to generation.
	Limit int `koanf:"limit"`

	// SearchLimit is how many candidates each source list contributes
	// before fusion.
	SearchLimit int `koanf:"search_limit"`

	// QdrantHost / QdrantPort locate the Qdrant gRPC endpoint.
	QdrantHost string `koanf:"qdrant_host"`
	QdrantPort int    `koanf:"qdrant_port"`

	// Collection is the article collection searched per query.
	Collection string `koanf:"collection"`

	// VectorSize is the embedding dimensionality. Must match the
	// embedding provider's output.
	VectorSize int `koanf:"vector_size"`
}

// GenerationConfig holds generation collaborator configuration.
type GenerationConfig struct {
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model"`
	MaxRetries int           `koanf:"max_retries"`
	// FastTimeout is the soft budget for the user-visible answer.
	FastTimeout time.Duration `koanf:"fast_timeout"`
	// EnrichTimeout bounds the background enrichment unit, measured
	// from turn start.
	EnrichTimeout time.Duration `koanf:"enrich_timeout"`
}

// EmbeddingConfig holds embedding collaborator configuration.
type EmbeddingConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`

	// CacheTTL / CacheMaxEntries bound the exact-match embedding cache.
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port: %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Session.Capacity <= 0 {
		return fmt.Errorf("%w: session capacity must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.Limit <= 0 || c.Retrieval.SearchLimit < c.Retrieval.Limit {
		return fmt.Errorf("%w: retrieval limits out of range", ErrInvalidConfig)
	}
	switch c.Retrieval.Backend {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("%w: unknown retrieval backend %q", ErrInvalidConfig, c.Retrieval.Backend)
	}
	if c.Retrieval.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	if c.Generation.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries cannot be negative", ErrInvalidConfig)
	}
	if c.Embedding.CacheMaxEntries <= 0 {
		return fmt.Errorf("%w: embedding cache size must be positive", ErrInvalidConfig)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// applyDefaults fills in defaults for unset values.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Session.Capacity == 0 {
		cfg.Session.Capacity = 100
	}
	if cfg.Session.ReturningAfter == 0 {
		cfg.Session.ReturningAfter = 10 * time.Minute
	}
	if cfg.Retrieval.Backend == "" {
		cfg.Retrieval.Backend = "qdrant"
	}
	if cfg.Retrieval.Limit == 0 {
		cfg.Retrieval.Limit = 2
	}
	if cfg.Retrieval.SearchLimit == 0 {
		cfg.Retrieval.SearchLimit = 20
	}
	if cfg.Retrieval.QdrantHost == "" {
		cfg.Retrieval.QdrantHost = "localhost"
	}
	if cfg.Retrieval.QdrantPort == 0 {
		cfg.Retrieval.QdrantPort = 6334
	}
	if cfg.Retrieval.Collection == "" {
		cfg.Retrieval.Collection = "articles"
	}
	if cfg.Retrieval.VectorSize == 0 {
		cfg.Retrieval.VectorSize = 1024
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "claude-3-5-haiku-20241022"
	}
	if cfg.Generation.MaxRetries == 0 {
		cfg.Generation.MaxRetries = 2
	}
	if cfg.Generation.FastTimeout == 0 {
		cfg.Generation.FastTimeout = 2 * time.Second
	}
	if cfg.Generation.EnrichTimeout == 0 {
		cfg.Generation.EnrichTimeout = 5 * time.Second
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.voyageai.com/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "voyage-3-lite"
	}
	if cfg.Embedding.CacheTTL == 0 {
		cfg.Embedding.CacheTTL = 10 * time.Minute
	}
	if cfg.Embedding.CacheMaxEntries == 0 {
		cfg.Embedding.CacheMaxEntries = 200
	}
}
