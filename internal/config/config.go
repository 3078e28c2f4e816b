// Package config loads engine configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Search SearchConfig `yaml:"search"`
	Cache  CacheConfig  `yaml:"cache"`
	Ollama OllamaConfig `yaml:"ollama"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
}

// SearchConfig tunes ranking and fusion.
// Weights and the RRF constant are overridable via RITROVA_LEXICAL_WEIGHT,
// RITROVA_SEMANTIC_WEIGHT, and RITROVA_RRF_CONSTANT.
type SearchConfig struct {
	// LexicalWeight and SemanticWeight control weighted-sum fusion.
	// They are renormalized to sum to 1.0 at query time.
	LexicalWeight  float64 `yaml:"lexical_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`

	// FusionMethod selects "weighted" or "rrf".
	FusionMethod string `yaml:"fusion_method"`

	// RRFConstant is the rank smoothing parameter k in 1/(k+rank+1).
	RRFConstant int `yaml:"rrf_constant"`

	// BM25K1 and BM25B are the Okapi BM25 parameters.
	BM25K1 float64 `yaml:"bm25_k1"`
	BM25B  float64 `yaml:"bm25_b"`

	// MinQueryLength rejects queries shorter than this many runes.
	MinQueryLength int `yaml:"min_query_length"`

	// MaxResults caps the per-request result limit.
	MaxResults int `yaml:"max_results"`

	// DefaultLimit applies when a request does not specify a limit.
	DefaultLimit int `yaml:"default_limit"`
}

// CacheConfig tunes the result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

// OllamaConfig configures the embedding backend.
type OllamaConfig struct {
	Host       string        `yaml:"host"`
	Model      string        `yaml:"model"`
	Dimensions int           `yaml:"dimensions"`
	BatchSize  int           `yaml:"batch_size"`
	Timeout    time.Duration `yaml:"timeout"`
}

// StoreConfig configures persistence paths.
type StoreConfig struct {
	// DatabasePath is the SQLite document store location.
	DatabasePath string `yaml:"database_path"`
	// VectorPath is the HNSW index file location.
	VectorPath string `yaml:"vector_path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			LexicalWeight:  0.4,
			SemanticWeight: 0.6,
			FusionMethod:   "weighted",
			RRFConstant:    60,
			BM25K1:         1.2,
			BM25B:          0.75,
			MinQueryLength: 2,
			MaxResults:     100,
			DefaultLimit:   10,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    512,
			TTL:     30 * time.Minute,
		},
		Ollama: OllamaConfig{
			Host:       "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
			BatchSize:  32,
			Timeout:    60 * time.Second,
		},
		Store: StoreConfig{
			DatabasePath: "ritrova.db",
			VectorPath:   "ritrova.hnsw",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the given YAML file, falling back to
// defaults when the path is empty or the file does not exist. Environment
// overrides apply last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies RITROVA_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RITROVA_LEXICAL_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.LexicalWeight = w
		}
	}
	if v := os.Getenv("RITROVA_SEMANTIC_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("RITROVA_FUSION_METHOD"); v != "" {
		c.Search.FusionMethod = strings.ToLower(v)
	}
	if v := os.Getenv("RITROVA_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("RITROVA_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("RITROVA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("RITROVA_OLLAMA_HOST"); v != "" {
		c.Ollama.Host = v
	}
	if v := os.Getenv("RITROVA_OLLAMA_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("RITROVA_DB_PATH"); v != "" {
		c.Store.DatabasePath = v
	}
	if v := os.Getenv("RITROVA_VECTOR_PATH"); v != "" {
		c.Store.VectorPath = v
	}
	if v := os.Getenv("RITROVA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Search.LexicalWeight < 0 || c.Search.SemanticWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if c.Search.LexicalWeight == 0 && c.Search.SemanticWeight == 0 {
		return fmt.Errorf("at least one search weight must be positive")
	}
	switch c.Search.FusionMethod {
	case "weighted", "rrf":
	default:
		return fmt.Errorf("unknown fusion method %q (want weighted or rrf)", c.Search.FusionMethod)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.BM25K1 < 0 {
		return fmt.Errorf("bm25_k1 must be non-negative, got %v", c.Search.BM25K1)
	}
	if c.Search.BM25B < 0 || c.Search.BM25B > 1 {
		return fmt.Errorf("bm25_b must be in [0,1], got %v", c.Search.BM25B)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.DefaultLimit > c.Search.MaxResults {
		return fmt.Errorf("default_limit must be in [1,%d], got %d", c.Search.MaxResults, c.Search.DefaultLimit)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.Cache.Size)
	}
	if c.Ollama.Dimensions <= 0 {
		return fmt.Errorf("ollama dimensions must be positive, got %d", c.Ollama.Dimensions)
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store database_path must not be empty")
	}
	return nil
}
