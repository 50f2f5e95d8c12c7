package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge-engine/pkg/retry"
)

// RetryingClient wraps a GenerationClient with retry, exponential backoff,
// and a circuit breaker. Empty model output counts as a retryable failure:
// an empty completion is as useless to the caller as a transport error.
type RetryingClient struct {
	inner   GenerationClient
	cfg     *retry.Config
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// NewRetryingClient wraps client with retry behavior. A nil cfg uses the
// retry defaults; a nil breaker disables circuit breaking.
func NewRetryingClient(client GenerationClient, cfg *retry.Config, breaker *CircuitBreaker, logger *zap.Logger) *RetryingClient {
	return &RetryingClient{
		inner:   client,
		cfg:     cfg,
		breaker: breaker,
		logger:  logger.Named("generation"),
	}
}

// Generate calls the wrapped client up to MaxAttempts times. The returned
// error on exhaustion names the attempt count so operators can tell a flaky
// backend from a dead one.
func (c *RetryingClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.breaker != nil {
		if ok, err := c.breaker.Allow(); !ok {
			return "", NewError(ErrorTypeEndpoint, "generation blocked", false, err)
		}
	}

	attempt := 0
	output, err := retry.DoWithResult(ctx, c.cfg, func() (string, error) {
		attempt++
		out, genErr := c.inner.Generate(ctx, prompt)
		if genErr != nil {
			c.logger.Warn("generation attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(genErr))
			return "", genErr
		}
		if strings.TrimSpace(out) == "" {
			c.logger.Warn("generation attempt returned empty output",
				zap.Int("attempt", attempt))
			return "", NewError(ErrorTypeOutput, "empty output", true, nil)
		}
		return out, nil
	})
	if err != nil {
		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		return "", fmt.Errorf("generation failed after %d attempts: %w", attempt, err)
	}

	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	return output, nil
}

// Model returns the wrapped client's model name.
func (c *RetryingClient) Model() string { return c.inner.Model() }

// Endpoint returns the wrapped client's endpoint.
func (c *RetryingClient) Endpoint() string { return c.inner.Endpoint() }
