// Package qdrant is a thin REST client for the Qdrant vector store, covering
// the handful of operations the query pipeline needs: point search, collection
// bootstrap, point upsert, and a health probe.
package qdrant

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

// RetrievedExample is a stored question/SQL pair returned by similarity
// search, with the search score as confidence.
type RetrievedExample struct {
	Question   string
	SQL        string
	Confidence float64
}

// Point is a vector plus its payload, as written by the seeding tool.
type Point struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload"`
}

// Retriever finds the stored example most similar to a query vector.
type Retriever interface {
	// Search returns the best match above zero score, or nil when the
	// collection has no usable match.
	Search(ctx context.Context, vector []float32) (*RetrievedExample, error)
}

// Client talks to a Qdrant instance over its REST API.
type Client struct {
	baseURL    string
	collection string
	http       *http.Client
	logger     *zap.Logger
}

// Config holds connection settings for the Qdrant client.
type Config struct {
	URL        string // Base URL, e.g. "http://localhost:6333"
	Collection string // Collection name, e.g. "sql_examples"
	Timeout    time.Duration
}

// NewClient creates a Qdrant REST client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		collection: cfg.Collection,
		http:       &http.Client{Timeout: timeout},
		logger:     logger.Named("qdrant"),
	}, nil
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	WithVector  bool      `json:"with_vector"`
}

type searchResponse struct {
	Result []struct {
		Score   float64                    `json:"score"`
		Payload map[string]json.RawMessage `json:"payload"`
	} `json:"result"`
}

// Search runs a top-1 similarity search against the collection. A match with
// an empty question or SQL payload is treated as no match: an incomplete
// example would only mislead the prompt.
func (c *Client) Search(ctx context.Context, vector []float32) (*RetrievedExample, error) {
	body := searchRequest{
		Vector:      vector,
		Limit:       1,
		WithPayload: true,
		WithVector:  false,
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)

	var resp searchResponse
	if err := c.postJSON(ctx, url, body, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	if len(resp.Result) == 0 {
		c.logger.Debug("no similar examples found")
		return nil, nil
	}

	hit := resp.Result[0]
	question := strings.TrimSpace(payloadString(hit.Payload, "question"))
	sql := strings.TrimSpace(payloadString(hit.Payload, "sql"))
	if question == "" || sql == "" {
		c.logger.Warn("discarding search hit with incomplete payload",
			zap.Float64("score", hit.Score))
		return nil, nil
	}

	c.logger.Debug("retrieved similar example",
		zap.Float64("score", hit.Score),
		zap.Int("question_len", len(question)))

	return &RetrievedExample{
		Question:   question,
		SQL:        sql,
		Confidence: hit.Score,
	}, nil
}

// payloadString pulls a string field out of a payload, tolerating values
// stored as raw strings or wrapped in other JSON scalar types.
func payloadString(payload map[string]json.RawMessage, key string) string {
	raw, ok := payload[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	// Some ingestion paths store numbers or booleans; render them as text.
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		switch val := v.(type) {
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", val), "0"), ".")
		case bool:
			return fmt.Sprintf("%t", val)
		}
	}
	return ""
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// EnsureCollection creates the collection with the given vector size and
// cosine distance. An already-existing collection is not an error.
func (c *Client) EnsureCollection(ctx context.Context, vectorSize int) error {
	body := createCollectionRequest{
		Vectors: vectorParams{Size: vectorSize, Distance: "Cosine"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal create collection request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		c.logger.Info("collection ready", zap.String("collection", c.collection))
		return nil
	}

	var errBody struct {
		Status struct {
			Error string `json:"error"`
		} `json:"status"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errBody)
	if resp.StatusCode == http.StatusConflict ||
		strings.Contains(strings.ToLower(errBody.Status.Error), "already exists") {
		c.logger.Debug("collection already exists", zap.String("collection", c.collection))
		return nil
	}

	return fmt.Errorf("create collection: status %d: %s", resp.StatusCode, errBody.Status.Error)
}

type upsertRequest struct {
	Points []Point `json:"points"`
}

// UpsertPoints writes points to the collection, waiting for them to be
// indexed before returning.
func (c *Client) UpsertPoints(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	if err := c.putJSON(ctx, url, upsertRequest{Points: points}); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}

	c.logger.Info("upserted points",
		zap.String("collection", c.collection),
		zap.Int("count", len(points)))
	return nil
}

// Healthy reports whether the Qdrant instance answers its root endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, url, body, out)
}

func (c *Client) putJSON(ctx context.Context, url string, body any) error {
	return c.doJSON(ctx, http.MethodPut, url, body, nil)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
