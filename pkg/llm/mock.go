package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for GenerationClient. Set GenerateFunc to
// control behavior; call counts are tracked for assertions.
type MockClient struct {
	mu sync.Mutex

	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	ModelName    string
	EndpointURL  string

	GenerateCalls int
	LastPrompt    string
}

// Generate records the call and delegates to GenerateFunc, or returns an
// empty string when unset.
func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.GenerateCalls++
	m.LastPrompt = prompt
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn == nil {
		return "", nil
	}
	return fn(ctx, prompt)
}

// Model returns the configured mock model name.
func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Endpoint returns the configured mock endpoint.
func (m *MockClient) Endpoint() string {
	if m.EndpointURL == "" {
		return "mock://"
	}
	return m.EndpointURL
}

// Calls returns the number of Generate invocations.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GenerateCalls
}
