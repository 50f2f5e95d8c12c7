// Package handlers exposes the query pipeline over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge-engine/pkg/pipeline"
)

// QueryRequest is the inbound question payload.
type QueryRequest struct {
	Question string `json:"question"`
	Schema   string `json:"schema"`
}

// QueryResponse mirrors pipeline.Result. The response is status 200 even for
// pipeline errors: the SQL field always carries a valid statement and the
// status field says whether it answers the question.
type QueryResponse struct {
	SQL       string `json:"sql"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// QueryHandler handles question-to-SQL requests.
type QueryHandler struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// NewQueryHandler creates a QueryHandler around the given pipeline.
func NewQueryHandler(p *pipeline.Pipeline, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{pipeline: p, logger: logger}
}

// RegisterRoutes registers the query route on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/query", h.Query)
}

// Query handles POST /api/query requests.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	result := h.pipeline.Process(r.Context(), pipeline.Request{
		Question: req.Question,
		Schema:   req.Schema,
	})

	resp := QueryResponse{
		SQL:       result.SQL,
		Status:    result.Status,
		Message:   result.Message,
		ElapsedMs: result.ElapsedMs,
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}
