// Package pipeline orchestrates the question-to-SQL flow: inbound validation,
// schema parsing, fingerprinting, example retrieval, prompt construction,
// generation, and output sanitization/validation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge-engine/pkg/apperrors"
	"github.com/queryforge/queryforge-engine/pkg/fingerprint"
	"github.com/queryforge/queryforge-engine/pkg/llm"
	"github.com/queryforge/queryforge-engine/pkg/logging"
	"github.com/queryforge/queryforge-engine/pkg/prompt"
	"github.com/queryforge/queryforge-engine/pkg/qdrant"
	"github.com/queryforge/queryforge-engine/pkg/schema"
	"github.com/queryforge/queryforge-engine/pkg/sqltext"
)

// Result statuses.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// DefaultMaxQuestionLength bounds inbound questions.
const DefaultMaxQuestionLength = 10000

// Request is one question plus the raw schema text it runs against.
type Request struct {
	Question string
	Schema   string
}

// Result is the pipeline outcome. SQL is always a syntactically valid
/// statement: on error it selects the error message, so downstream consumers
// expecting "a SQL string" never receive anything else.
type Result struct {
	SQL       string
	Status    string
	Message   string
	ElapsedMs int64
}

// Options tunes per-deployment pipeline behavior.
type Options struct {
	// MaxQuestionLength rejects oversized questions; 0 means the default.
	MaxQuestionLength int
	// FallbackSchema substitutes for an empty inbound schema when non-empty.
	FallbackSchema string
	// ValidationPolicy names the sqltext policy ("default" or "read_only").
	ValidationPolicy string
}

// Pipeline converts questions into validated SQL.
type Pipeline struct {
	cache     *schema.Cache
	retriever qdrant.Retriever
	generator llm.GenerationClient
	policy    *sqltext.Policy
	opts      Options
	logger    *zap.Logger
}

// New creates a pipeline. The retriever may be nil to run without example
// retrieval.
func New(cache *schema.Cache, retriever qdrant.Retriever, generator llm.GenerationClient, opts Options, logger *zap.Logger) *Pipeline {
	if opts.MaxQuestionLength <= 0 {
		opts.MaxQuestionLength = DefaultMaxQuestionLength
	}

	return &Pipeline{
		cache:     cache,
		retriever: retriever,
		generator: generator,
		policy:    sqltext.PolicyByName(opts.ValidationPolicy),
		opts:      opts,
		logger:    logger.Named("pipeline"),
	}
}

// Process runs the full pipeline for one request. It never returns an error:
// every failure is rendered as an ERROR result carrying an error-query.
func (p *Pipeline) Process(ctx context.Context, req Request) Result {
	start := time.Now()
	log := p.logger.With(zap.String("request_id", uuid.NewString()[:8]))

	question := strings.TrimSpace(req.Question)
	log.Info("processing question",
		zap.String("question", logging.SanitizeQuery(question)))

	// Inbound validation happens before any remote call.
	if question == "" {
		return p.errorResult(log, start, apperrors.ErrEmptyQuestion.Error())
	}
	if len(question) > p.opts.MaxQuestionLength {
		return p.errorResult(log, start, apperrors.ErrQuestionTooLong.Error())
	}

	// Injection patterns in the question are logged but not rejected: the
	// question never reaches a database, and the output validator is the
	// actual gate.
	if isSQLi, fp := libinjection.IsSQLi(question); isSQLi {
		log.Warn("question matches injection fingerprint",
			zap.String("fingerprint", string(fp)))
	}

	schemaText := strings.TrimSpace(req.Schema)
	if schemaText == "" {
		if p.opts.FallbackSchema == "" {
			return p.errorResult(log, start, apperrors.ErrEmptySchema.Error())
		}
		log.Debug("using fallback schema")
		schemaText = p.opts.FallbackSchema
	}

	// Parsing and fingerprinting have no mutual dependency; run both at
	// once. Neither can fail.
	var (
		model  *schema.Model
		vector []float32
		wg     sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		model = p.cache.Parse(schemaText)
	}()
	go func() {
		defer wg.Done()
		vector = fingerprint.Embed(question)
	}()
	wg.Wait()

	if model.IsEmpty() {
		return p.errorResult(log, start, apperrors.ErrNoTables.Error())
	}
	log.Debug("schema parsed", zap.Int("tables", model.Len()))

	example := p.retrieveExample(ctx, log, vector)
	hints := schema.InferRelationships(model)
	promptText := prompt.Build(question, model, hints, example)
	log.Debug("prompt built",
		zap.Int("prompt_len", len(promptText)),
		zap.String("prompt_preview", logging.TruncateString(promptText, logging.MaxPromptLogLength)))

	raw, err := p.generator.Generate(ctx, promptText)
	if err != nil {
		log.Error("generation failed", zap.String("error", logging.SanitizeError(err)))
		return p.errorResult(log, start,
			fmt.Sprintf("%s: %s", apperrors.ErrGenerationFailed, logging.SanitizeError(err)))
	}

	sql := sqltext.Sanitize(raw)
	if !p.policy.IsValid(sql) {
		// The offending text is logged truncated, never returned, to avoid
		// echoing unsafe content back to the caller.
		log.Warn("generated SQL failed validation",
			zap.String("sql", logging.TruncateString(sql, logging.MaxQueryLogLength)))
		return p.errorResult(log, start, apperrors.ErrInvalidSQL.Error())
	}

	elapsed := time.Since(start).Milliseconds()
	log.Info("query generated",
		zap.Int64("elapsed_ms", elapsed),
		zap.Int("sql_len", len(sql)))

	return Result{
		SQL:       sql,
		Status:    StatusOK,
		Message:   "Query generated successfully",
		ElapsedMs: elapsed,
	}
}

// retrieveExample absorbs all retrieval failures: a missing example degrades
// the prompt, it never fails the request.
func (p *Pipeline) retrieveExample(ctx context.Context, log *zap.Logger, vector []float32) *qdrant.RetrievedExample {
	if p.retriever == nil {
		return nil
	}

	example, err := p.retriever.Search(ctx, vector)
	if err != nil {
		log.Warn("example retrieval failed", zap.String("error", logging.SanitizeError(err)))
		return nil
	}
	if example != nil {
		log.Debug("example retrieved", zap.Float64("confidence", example.Confidence))
	}
	return example
}

func (p *Pipeline) errorResult(log *zap.Logger, start time.Time, message string) Result {
	elapsed := time.Since(start).Milliseconds()
	log.Warn("request failed",
		zap.String("message", message),
		zap.Int64("elapsed_ms", elapsed))

	return Result{
		SQL:       sqltext.ErrorSQL(message),
		Status:    StatusError,
		Message:   message,
		ElapsedMs: elapsed,
	}
}
