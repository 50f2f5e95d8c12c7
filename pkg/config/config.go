package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the query engine.
// Configuration comes from a YAML file with environment variable overrides.
// Secrets (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Generation GenerationConfig `yaml:"generation"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// GenerationConfig holds settings for the text-generation backend.
type GenerationConfig struct {
	Provider string `yaml:"provider" env:"GENERATION_PROVIDER" env-default:"ollama"`
	Endpoint string `yaml:"endpoint" env:"GENERATION_ENDPOINT" env-default:"http://localhost:11434"`
	Model    string `yaml:"model" env:"GENERATION_MODEL" env-default:"sqlcoder"`
	APIKey   string `yaml:"-" env:"GENERATION_API_KEY"` // Secret - not in YAML

	// TimeoutSeconds bounds one generation call; local inference is slow.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"GENERATION_TIMEOUT_SECONDS" env-default:"120"`

	// Retry behavior: MaxAttempts total calls, backoff doubling from
	// BackoffSeconds between them.
	MaxAttempts    int `yaml:"max_attempts" env:"GENERATION_MAX_ATTEMPTS" env-default:"3"`
	BackoffSeconds int `yaml:"backoff_seconds" env:"GENERATION_BACKOFF_SECONDS" env-default:"2"`

	// Circuit breaker settings.
	BreakerThreshold    int `yaml:"breaker_threshold" env:"GENERATION_BREAKER_THRESHOLD" env-default:"5"`
	BreakerResetSeconds int `yaml:"breaker_reset_seconds" env:"GENERATION_BREAKER_RESET_SECONDS" env-default:"30"`
}

// Timeout returns the generation call timeout.
func (c *GenerationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Backoff returns the initial retry delay.
func (c *GenerationConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffSeconds) * time.Second
}

// BreakerReset returns the circuit breaker reset window.
func (c *GenerationConfig) BreakerReset() time.Duration {
	return time.Duration(c.BreakerResetSeconds) * time.Second
}

// QdrantConfig holds settings for the similarity index.
type QdrantConfig struct {
	URL            string `yaml:"url" env:"QDRANT_URL" env-default:"http://localhost:6333"`
	Collection     string `yaml:"collection" env:"QDRANT_COLLECTION" env-default:"sql_examples"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"QDRANT_TIMEOUT_SECONDS" env-default:"5"`

	// Enabled turns example retrieval off entirely when false.
	Enabled bool `yaml:"enabled" env:"QDRANT_ENABLED" env-default:"true"`
}

// Timeout returns the retrieval call timeout.
func (c *QdrantConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PipelineConfig holds pipeline-level limits and policy selection.
type PipelineConfig struct {
	MaxQuestionLength int    `yaml:"max_question_length" env:"PIPELINE_MAX_QUESTION_LENGTH" env-default:"10000"`
	CacheSize         int    `yaml:"cache_size" env:"PIPELINE_CACHE_SIZE" env-default:"100"`
	ValidationPolicy  string `yaml:"validation_policy" env:"PIPELINE_VALIDATION_POLICY" env-default:"default"`
	FallbackSchema    string `yaml:"fallback_schema" env:"PIPELINE_FALLBACK_SCHEMA" env-default:""`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML file with environment
// variable overrides.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if c.Generation.MaxAttempts < 1 {
		return fmt.Errorf("generation.max_attempts must be at least 1")
	}
	if c.Pipeline.CacheSize < 1 {
		return fmt.Errorf("pipeline.cache_size must be at least 1")
	}
	if policy := c.Pipeline.ValidationPolicy; policy != "default" && policy != "read_only" {
		return fmt.Errorf("pipeline.validation_policy must be %q or %q", "default", "read_only")
	}
	return nil
}
