// Package config loads configuration from an optional YAML file, a .env
// file, and environment variable overrides, then validates it. The scoring
// weights and the rejection threshold are configuration, not constants: they
// are empirically tuned values that must be re-validated against a labeled
// query set whenever the corpus changes.
package config

import (
	"fmt"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Ollama struct {
		Host       string `yaml:"host" validate:"required"`
		EmbedModel string `yaml:"embed_model" validate:"required"`
		ChatModel  string `yaml:"chat_model" validate:"required"`
	} `yaml:"ollama"`

	Qdrant struct {
		Addr       string `yaml:"addr"`
		Collection string `yaml:"collection"`
	} `yaml:"qdrant"`

	Retrieval struct {
		SimWeight  float64 `yaml:"sim_weight" validate:"gt=0,lte=1"`
		MetaWeight float64 `yaml:"meta_weight" validate:"gte=0,lt=1"`
		PopWeight  float64 `yaml:"pop_weight" validate:"gte=0,lt=1"`
		Threshold  float64 `yaml:"threshold" validate:"gte=0,lte=1"`
		TopK       int     `yaml:"top_k" validate:"gt=0"`
	} `yaml:"retrieval"`

	Embedding struct {
		Dimension int `yaml:"dimension" validate:"gt=0"`
		CacheSize int `yaml:"cache_size" validate:"gt=0"`
	} `yaml:"embedding"`

	Input struct {
		MinLength int `yaml:"min_length" validate:"gt=0"`
		MaxLength int `yaml:"max_length" validate:"gtfield=MinLength"`
	} `yaml:"input"`

	Corpus struct {
		ItemsPath      string `yaml:"items_path"`
		EngagementPath string `yaml:"engagement_path"`
	} `yaml:"corpus"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the tuned defaults. The retrieval constants mirror the
// offline-tuned production values.
func Default() *Config {
	cfg := &Config{}
	cfg.Ollama.Host = "http://localhost:11434"
	cfg.Ollama.EmbedModel = "all-minilm"
	cfg.Ollama.ChatModel = "llama3"
	cfg.Qdrant.Addr = "localhost:6334"
	cfg.Qdrant.Collection = "webtoons"
	cfg.Retrieval.SimWeight = 0.65
	cfg.Retrieval.MetaWeight = 0.20
	cfg.Retrieval.PopWeight = 0.15
	cfg.Retrieval.Threshold = 0.35
	cfg.Retrieval.TopK = 5
	cfg.Embedding.Dimension = 384
	cfg.Embedding.CacheSize = 1024
	cfg.Input.MinLength = 5
	cfg.Input.MaxLength = 500
	cfg.Corpus.ItemsPath = "data/items.json"
	cfg.Corpus.EngagementPath = "data/engagement.json"
	cfg.Log.Level = "info"
	return cfg
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then environment overrides, then validation. A .env file in
// the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	if v := os.Getenv("OLLAMA_EMBED_MODEL"); v != "" {
		cfg.Ollama.EmbedModel = v
	}
	if v := os.Getenv("OLLAMA_CHAT_MODEL"); v != "" {
		cfg.Ollama.ChatModel = v
	}
	if v := os.Getenv("QDRANT_ADDR"); v != "" {
		cfg.Qdrant.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks field constraints and that the scoring weights sum to 1
// with similarity dominant.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	sum := c.Retrieval.SimWeight + c.Retrieval.MetaWeight + c.Retrieval.PopWeight
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("config: retrieval weights must sum to 1, got %.4f", sum)
	}
	if c.Retrieval.SimWeight < c.Retrieval.MetaWeight || c.Retrieval.SimWeight < c.Retrieval.PopWeight {
		return fmt.Errorf("config: similarity weight must dominate metadata and popularity weights")
	}
	return nil
}
