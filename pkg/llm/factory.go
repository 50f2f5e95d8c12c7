package llm

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds settings shared by all generation backends.
type Config struct {
	Provider string // "ollama", "openai", or "anthropic"
	Endpoint string // Base URL; optional for hosted providers
	Model    string
	APIKey   string // Optional for local endpoints
	Timeout  time.Duration
}

// NewFromConfig builds the generation client for the configured provider.
func NewFromConfig(cfg *Config, logger *zap.Logger) (GenerationClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return NewOllamaClient(cfg, logger)
	case "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
