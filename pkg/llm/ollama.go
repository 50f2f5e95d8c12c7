package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaClient talks to a local Ollama server's generate endpoint.
type OllamaClient struct {
	endpoint string
	model    string
	http     *http.Client
	logger   *zap.Logger
}

// NewOllamaClient creates a client for an Ollama endpoint.
func NewOllamaClient(cfg *Config, logger *zap.Logger) (*OllamaClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &OllamaClient{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.Named("ollama"),
	}, nil
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

// ollamaOptions pins sampling low and caps output length: SQL generation
// wants determinism, not creativity, and stops abort the model once it
// starts explaining itself.
type ollamaOptions struct {
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	TopK          int      `json:"top_k"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	NumPredict    int      `json:"num_predict"`
	Stop          []string `json:"stop"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Generate sends a non-streaming generate request and returns the raw model
// output.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature:   0.1,
			TopP:          0.9,
			TopK:          40,
			RepeatPenalty: 1.1,
			NumPredict:    200,
			Stop:          []string{"\n\n", "Question:", "Answer:", "Explanation:"},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", NewError(ErrorTypeUnknown, "marshal request", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", NewError(ErrorTypeUnknown, "build request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("generate request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", c.wrapError(ClassifyError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.wrapError(&Error{
			Type:       ErrorTypeEndpoint,
			Message:    "unexpected status",
			Retryable:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
			StatusCode: resp.StatusCode,
		})
	}

	var body ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", c.wrapError(NewError(ErrorTypeOutput, "decode response", true, err))
	}
	if body.Error != "" {
		return "", c.wrapError(ClassifyError(fmt.Errorf("%s", body.Error)))
	}

	c.logger.Debug("generate request completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("output_len", len(body.Response)))

	return body.Response, nil
}

func (c *OllamaClient) wrapError(err *Error) *Error {
	err.Model = c.model
	err.Endpoint = c.endpoint
	return err
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string { return c.model }

// Endpoint returns the configured endpoint URL.
func (c *OllamaClient) Endpoint() string { return c.endpoint }
