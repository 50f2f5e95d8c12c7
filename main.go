package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge-engine/pkg/config"
	"github.com/queryforge/queryforge-engine/pkg/handlers"
	"github.com/queryforge/queryforge-engine/pkg/llm"
	"github.com/queryforge/queryforge-engine/pkg/middleware"
	"github.com/queryforge/queryforge-engine/pkg/pipeline"
	"github.com/queryforge/queryforge-engine/pkg/qdrant"
	"github.com/queryforge/queryforge-engine/pkg/retry"
	"github.com/queryforge/queryforge-engine/pkg/schema"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.String("generation_model", cfg.Generation.Model),
		zap.String("qdrant_url", cfg.Qdrant.URL),
		zap.Bool("qdrant_enabled", cfg.Qdrant.Enabled))

	backend, err := llm.NewFromConfig(&llm.Config{
		Provider: cfg.Generation.Provider,
		Endpoint: cfg.Generation.Endpoint,
		Model:    cfg.Generation.Model,
		APIKey:   cfg.Generation.APIKey,
		Timeout:  cfg.Generation.Timeout(),
	}, logger)
	if err != nil {
		logger.Fatal("failed to create generation client", zap.Error(err))
	}

	breaker := llm.NewCircuitBreaker(llm.CircuitBreakerConfig{
		Threshold:  cfg.Generation.BreakerThreshold,
		ResetAfter: cfg.Generation.BreakerReset(),
	})
	generator := llm.NewRetryingClient(backend, &retry.Config{
		MaxAttempts:  cfg.Generation.MaxAttempts,
		InitialDelay: cfg.Generation.Backoff(),
		MaxDelay:     30 * cfg.Generation.Backoff(),
		Multiplier:   2.0,
	}, breaker, logger)

	checks := map[string]handlers.ReadyCheck{
		"generation": endpointCheck(backend.Endpoint()),
	}

	var retriever qdrant.Retriever
	if cfg.Qdrant.Enabled {
		qdrantClient, err := qdrant.NewClient(&qdrant.Config{
			URL:        cfg.Qdrant.URL,
			Collection: cfg.Qdrant.Collection,
			Timeout:    cfg.Qdrant.Timeout(),
		}, logger)
		if err != nil {
			logger.Fatal("failed to create qdrant client", zap.Error(err))
		}
		retriever = qdrantClient
		checks["qdrant"] = qdrantClient.Healthy
	} else {
		logger.Warn("example retrieval disabled; prompts will carry no retrieved examples")
	}

	p := pipeline.New(
		schema.NewCache(cfg.Pipeline.CacheSize),
		retriever,
		generator,
		pipeline.Options{
			MaxQuestionLength: cfg.Pipeline.MaxQuestionLength,
			FallbackSchema:    cfg.Pipeline.FallbackSchema,
			ValidationPolicy:  cfg.Pipeline.ValidationPolicy,
		},
		logger,
	)

	mux := http.NewServeMux()
	handlers.NewQueryHandler(p, logger).RegisterRoutes(mux)
	handlers.NewHealthHandler(cfg, checks, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("starting queryforge-engine", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// newLogger builds a production logger, or a human-readable one for local
// development.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// endpointCheck probes an HTTP endpoint's base URL for readiness reporting.
// Generation backends are never probed with a real completion; reachability
// is enough.
func endpointCheck(endpoint string) handlers.ReadyCheck {
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return false
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode < http.StatusInternalServerError
	}
}
