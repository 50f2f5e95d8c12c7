package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient generates SQL through the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicClient creates an Anthropic Messages API client.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  cfg.Model,
		logger: logger.Named("anthropic"),
	}, nil
}

// Generate sends the prompt as a single user message and returns the first
// text block of the response.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.1)
	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:         anthropic.Model(c.model),
		MaxTokens:     200,
		Temperature:   &temperature,
		StopSequences: []string{"\n\n", "Question:", "Answer:", "Explanation:"},
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("messages request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		return "", llmErr
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text = *block.Text
			break
		}
	}

	c.logger.Debug("messages request completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("output_len", len(text)))

	return text, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string { return c.model }

// Endpoint returns the API endpoint identifier.
func (c *AnthropicClient) Endpoint() string { return "https://api.anthropic.com" }
