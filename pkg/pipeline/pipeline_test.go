package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/queryforge/queryforge-engine/pkg/llm"
	"github.com/queryforge/queryforge-engine/pkg/logging"
	"github.com/queryforge/queryforge-engine/pkg/qdrant"
	"github.com/queryforge/queryforge-engine/pkg/retry"
	"github.com/queryforge/queryforge-engine/pkg/schema"
)

const employeeSchema = "TABLE employees (emp_id INT, name STRING, salary DOUBLE)"

type mockRetriever struct {
	example *qdrant.RetrievedExample
	err     error
	calls   int
}

func (m *mockRetriever) Search(ctx context.Context, vector []float32) (*qdrant.RetrievedExample, error) {
	m.calls++
	return m.example, m.err
}

func newPipeline(retriever qdrant.Retriever, generator llm.GenerationClient, opts Options) *Pipeline {
	return New(schema.NewCache(schema.DefaultCacheSize), retriever, generator, opts, zap.NewNop())
}

func TestProcess_EndToEnd(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "SELECT COUNT(*) FROM employees", nil
		},
	}

	p := newPipeline(&mockRetriever{}, mock, Options{})
	result := p.Process(context.Background(), Request{
		Question: "How many employees are there?",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, "SELECT COUNT(*) FROM employees;", result.SQL)
	assert.GreaterOrEqual(t, result.ElapsedMs, int64(0))
	assert.Contains(t, mock.LastPrompt, "employees")
	assert.Contains(t, mock.LastPrompt, "emp_id")
}

func TestProcess_EmptyQuestionNoRemoteCalls(t *testing.T) {
	retriever := &mockRetriever{}
	mock := &llm.MockClient{}

	p := newPipeline(retriever, mock, Options{})
	result := p.Process(context.Background(), Request{Question: "  ", Schema: employeeSchema})

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, strings.ToLower(result.Message), "question cannot be empty")
	assert.True(t, strings.HasPrefix(result.SQL, "/* Error:"))
	assert.Equal(t, 0, retriever.calls)
	assert.Equal(t, 0, mock.Calls())
}

func TestProcess_OversizedQuestionRejected(t *testing.T) {
	retriever := &mockRetriever{}
	mock := &llm.MockClient{}

	p := newPipeline(retriever, mock, Options{MaxQuestionLength: 50})
	result := p.Process(context.Background(), Request{
		Question: strings.Repeat("x", 51),
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, 0, retriever.calls)
	assert.Equal(t, 0, mock.Calls())
}

func TestProcess_EmptySchemaWithoutFallback(t *testing.T) {
	p := newPipeline(&mockRetriever{}, &llm.MockClient{}, Options{})
	result := p.Process(context.Background(), Request{Question: "how many", Schema: ""})

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, strings.ToLower(result.Message), "schema")
}

func TestProcess_EmptySchemaUsesFallback(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "SELECT COUNT(*) FROM employees;", nil
		},
	}

	p := newPipeline(&mockRetriever{}, mock, Options{FallbackSchema: employeeSchema})
	result := p.Process(context.Background(), Request{Question: "How many employees?", Schema: ""})

	assert.Equal(t, StatusOK, result.Status)
	assert.Contains(t, mock.LastPrompt, "employees")
}

func TestProcess_UnparseableSchemaIsError(t *testing.T) {
	mock := &llm.MockClient{}
	p := newPipeline(&mockRetriever{}, mock, Options{})
	result := p.Process(context.Background(), Request{
		Question: "how many rows",
		Schema:   "%%% total garbage %%%",
	})

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, 0, mock.Calls())
}

func TestProcess_GenerationExhaustionAfterThreeAttempts(t *testing.T) {
	var stamps []time.Time
	backend := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			stamps = append(stamps, time.Now())
			return "", errors.New("request timeout")
		},
	}

	cfg := &retry.Config{
		MaxAttempts:  3,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}
	generator := llm.NewRetryingClient(backend, cfg, nil, zap.NewNop())

	p := newPipeline(&mockRetriever{}, generator, Options{})
	result := p.Process(context.Background(), Request{
		Question: "How many employees are there?",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Message, "after 3 attempts")
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

func TestProcess_RetrievalFailureAbsorbed(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "SELECT COUNT(*) FROM employees;", nil
		},
	}

	p := newPipeline(&mockRetriever{err: errors.New("qdrant down")}, mock, Options{})
	result := p.Process(context.Background(), Request{
		Question: "How many employees?",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusOK, result.Status)
	assert.NotContains(t, mock.LastPrompt, "RELEVANT EXAMPLE")
}

func TestProcess_NoExampleOmitsPromptSection(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "SELECT COUNT(*) FROM employees;", nil
		},
	}

	// The retriever discards hits with an empty sql payload and reports no
	// match; the prompt must then carry no example section.
	p := newPipeline(&mockRetriever{example: nil}, mock, Options{})
	result := p.Process(context.Background(), Request{
		Question: "How many employees?",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusOK, result.Status)
	assert.NotContains(t, mock.LastPrompt, "RELEVANT EXAMPLE")
}

func TestProcess_ExampleIncludedInPrompt(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "SELECT COUNT(*) FROM employees;", nil
		},
	}

	retriever := &mockRetriever{example: &qdrant.RetrievedExample{
		Question:   "count all staff",
		SQL:        "SELECT COUNT(*) FROM employees;",
		Confidence: 0.88,
	}}

	p := newPipeline(retriever, mock, Options{})
	result := p.Process(context.Background(), Request{
		Question: "How many employees?",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusOK, result.Status)
	assert.Contains(t, mock.LastPrompt, "=== RELEVANT EXAMPLE FROM QDRANT ===")
	assert.Contains(t, mock.LastPrompt, "count all staff")
}

func TestProcess_InvalidGeneratedSQLRejected(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "DROP SCRIPT x;", nil
		},
	}

	p := newPipeline(&mockRetriever{}, mock, Options{})
	result := p.Process(context.Background(), Request{
		Question: "How many employees?",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Message, "validation")
	// The offending SQL is never echoed to the caller.
	assert.NotContains(t, result.SQL, "DROP SCRIPT")
}

func TestProcess_ReadOnlyPolicyRejectsWrites(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "DELETE FROM employees;", nil
		},
	}

	p := newPipeline(&mockRetriever{}, mock, Options{ValidationPolicy: "read_only"})
	result := p.Process(context.Background(), Request{
		Question: "remove all employees",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusError, result.Status)
}

func TestProcess_InsufficientDataSentinel(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "INSUFFICIENT_DATA", nil
		},
	}

	p := newPipeline(&mockRetriever{}, mock, Options{})
	result := p.Process(context.Background(), Request{
		Question: "what is the meaning of life",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, "SELECT 'INSUFFICIENT_DATA' AS message;", result.SQL)
}

func TestProcess_PromptLoggedTruncated(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "SELECT COUNT(*) FROM employees;", nil
		},
	}

	p := New(schema.NewCache(schema.DefaultCacheSize), nil, mock, Options{}, zap.New(core))
	result := p.Process(context.Background(), Request{
		Question: "How many employees are there?",
		Schema:   employeeSchema,
	})
	require.Equal(t, StatusOK, result.Status)

	entries := logs.FilterMessage("prompt built").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()

	preview, ok := fields["prompt_preview"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, preview)
	// Truncation appends "..." past the cap; the preview never exceeds it by more.
	assert.LessOrEqual(t, len(preview), logging.MaxPromptLogLength+len("..."))
	assert.Greater(t, int(fields["prompt_len"].(int64)), 0)
}

func TestProcess_NilRetrieverRunsWithoutExamples(t *testing.T) {
	mock := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "SELECT COUNT(*) FROM employees;", nil
		},
	}

	p := newPipeline(nil, mock, Options{})
	result := p.Process(context.Background(), Request{
		Question: "How many employees?",
		Schema:   employeeSchema,
	})

	assert.Equal(t, StatusOK, result.Status)
}
