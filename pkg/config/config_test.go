package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	path := writeConfig(t, "env: test\n")

	cfg, err := LoadFrom(path, "v1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ollama", cfg.Generation.Provider)
	assert.Equal(t, "sqlcoder", cfg.Generation.Model)
	assert.Equal(t, 3, cfg.Generation.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Generation.Backoff())
	assert.Equal(t, 120*time.Second, cfg.Generation.Timeout())
	assert.Equal(t, "http://localhost:6333", cfg.Qdrant.URL)
	assert.Equal(t, "sql_examples", cfg.Qdrant.Collection)
	assert.True(t, cfg.Qdrant.Enabled)
	assert.Equal(t, 10000, cfg.Pipeline.MaxQuestionLength)
	assert.Equal(t, 100, cfg.Pipeline.CacheSize)
	assert.Equal(t, "default", cfg.Pipeline.ValidationPolicy)
}

func TestLoadFrom_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
generation:
  provider: "openai"
  model: "gpt-4o-mini"
  max_attempts: 5
qdrant:
  collection: "prod_examples"
  enabled: false
pipeline:
  validation_policy: "read_only"
  fallback_schema: "TABLE t (id INT)"
`)

	cfg, err := LoadFrom(path, "dev")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Generation.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Generation.Model)
	assert.Equal(t, 5, cfg.Generation.MaxAttempts)
	assert.Equal(t, "prod_examples", cfg.Qdrant.Collection)
	assert.False(t, cfg.Qdrant.Enabled)
	assert.Equal(t, "read_only", cfg.Pipeline.ValidationPolicy)
	assert.Equal(t, "TABLE t (id INT)", cfg.Pipeline.FallbackSchema)
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "generation:\n  model: \"from-yaml\"\n")

	t.Setenv("GENERATION_MODEL", "from-env")
	t.Setenv("GENERATION_API_KEY", "sk-secret")

	cfg, err := LoadFrom(path, "dev")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Generation.Model)
	assert.Equal(t, "sk-secret", cfg.Generation.APIKey)
}

func TestLoadFrom_InvalidPolicy(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  validation_policy: \"anything_goes\"\n")

	_, err := LoadFrom(path, "dev")
	assert.Error(t, err)
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"), "dev")
	assert.Error(t, err)
}
