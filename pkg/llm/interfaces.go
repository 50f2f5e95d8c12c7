// Package llm provides clients for SQL-generating language model backends,
// plus the retry and circuit-breaker machinery wrapped around them.
package llm

import "context"

// GenerationClient generates raw model output for a prompt. Implementations
// return the text exactly as the backend produced it; cleanup and validation
// happen downstream.
type GenerationClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
	Endpoint() string
}

// ErrorType classifies generation failures.
type ErrorType string

const (
	ErrorTypeAuth     ErrorType = "auth"
	ErrorTypeModel    ErrorType = "model"
	ErrorTypeEndpoint ErrorType = "endpoint"
	ErrorTypeOutput   ErrorType = "output"
	ErrorTypeUnknown  ErrorType = "unknown"
)
