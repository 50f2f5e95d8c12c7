package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient generates SQL through an OpenAI-compatible chat completion
// endpoint. This also covers self-hosted servers (vLLM, LiteLLM) that speak
// the same API.
type OpenAIClient struct {
	client   *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewOpenAIClient creates an OpenAI-compatible chat completion client.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: clientConfig.BaseURL,
		model:    cfg.Model,
		logger:   logger.Named("openai"),
	}, nil
}

// Generate sends the prompt as a single user message and returns the first
// choice's content.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		TopP:        0.9,
		MaxTokens:   200,
		Stop:        []string{"\n\n", "Question:", "Answer:", "Explanation:"},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Error("chat completion failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		llmErr.Endpoint = c.endpoint
		return "", llmErr
	}

	if len(resp.Choices) == 0 {
		return "", &Error{
			Type:      ErrorTypeOutput,
			Message:   "no choices in response",
			Retryable: true,
			Model:     c.model,
			Endpoint:  c.endpoint,
		}
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("chat completion completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return content, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Endpoint returns the configured endpoint URL.
func (c *OpenAIClient) Endpoint() string { return c.endpoint }
