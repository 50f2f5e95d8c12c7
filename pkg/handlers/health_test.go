package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge-engine/pkg/config"
)

func TestHealth(t *testing.T) {
	h := NewHealthHandler(&config.Config{}, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReady_AllChecksPass(t *testing.T) {
	checks := map[string]ReadyCheck{
		"qdrant":     func(ctx context.Context) bool { return true },
		"generation": func(ctx context.Context) bool { return true },
	}
	h := NewHealthHandler(&config.Config{Version: "v1"}, checks, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "v1", resp.Version)
	assert.True(t, resp.Checks["qdrant"])
	assert.True(t, resp.Checks["generation"])
}

func TestReady_FailingCheckReports503(t *testing.T) {
	checks := map[string]ReadyCheck{
		"qdrant":     func(ctx context.Context) bool { return false },
		"generation": func(ctx context.Context) bool { return true },
	}
	h := NewHealthHandler(&config.Config{}, checks, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Checks["qdrant"])
}
