package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for Pinecone configuration.
var (
	// ErrNoAPIKey is returned when the Pinecone API key is missing.
	ErrNoAPIKey = errors.New("kb: Pinecone API key required")

	// ErrNoHost is returned when the Pinecone index host is missing.
	ErrNoHost = errors.New("kb: Pinecone index host required")

	// ErrNoEmbedder is returned when no query embedder was provided.
	ErrNoEmbedder = errors.New("kb: embedder required")
)

// Embedder turns a query into the vector matched against the index.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float64, error)

// EmbedQuery calls the wrapped function.
func (f EmbedderFunc) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}

// Pinecone implements Store against a hosted Pinecone index.
// Queries are embedded, matched by vector similarity, and returned with
// cosine-similarity-like scores in descending order.
type Pinecone struct {
	apiKey    string
	host      string
	namespace string
	embedder  Embedder
	client    *http.Client
	logger    *slog.Logger
}

// PineconeOption configures a Pinecone store.
type PineconeOption func(*Pinecone)

// WithAPIKey sets the Pinecone API key.
func WithAPIKey(key string) PineconeOption {
	return func(p *Pinecone) { p.apiKey = key }
}

// WithHost sets the index host (as reported by the Pinecone console).
func WithHost(host string) PineconeOption {
	return func(p *Pinecone) { p.host = host }
}

// WithNamespace sets the index namespace to query.
func WithNamespace(ns string) PineconeOption {
	return func(p *Pinecone) { p.namespace = ns }
}

// WithTimeout sets the query timeout.
func WithTimeout(d time.Duration) PineconeOption {
	return func(p *Pinecone) { p.client = &http.Client{Timeout: d} }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) PineconeOption {
	return func(p *Pinecone) { p.logger = logger }
}

// NewPinecone creates a Pinecone-backed store.
func NewPinecone(embedder Embedder, opts ...PineconeOption) (*Pinecone, error) {
	p := &Pinecone{
		embedder: embedder,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "kb.pinecone")

	if p.embedder == nil {
		return nil, ErrNoEmbedder
	}
	if p.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if p.host == "" {
		return nil, ErrNoHost
	}
	if !strings.HasPrefix(p.host, "http") {
		p.host = "https://" + p.host
	}
	p.host = strings.TrimSuffix(p.host, "/")

	return p, nil
}

// Search embeds the query and matches it against the index. Matches whose
// metadata carries no text are skipped; they cannot ground a response.
func (p *Pinecone) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" || topK <= 0 {
		return nil, nil
	}

	vector, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("kb: embed query: %w", err)
	}

	payload := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	if p.namespace != "" {
		payload["namespace"] = p.namespace
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("kb: marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.host+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("kb: create request: %w", err)
	}
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kb: query index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("kb: pinecone returned %d: %s", resp.StatusCode, string(msg))
	}

	var result struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("kb: decode response: %w", err)
	}

	results := make([]Result, 0, len(result.Matches))
	for _, m := range result.Matches {
		text := metaString(m.Metadata, "text", "content")
		if text == "" {
			continue
		}
		source := metaString(m.Metadata, "source", "filename")
		if source == "" {
			source = m.ID
		}
		results = append(results, Result{
			Document: Document{ID: m.ID, Text: text, Source: source},
			Score:    m.Score,
		})
	}

	p.logger.Debug("semantic search",
		"matches", len(results),
		"top_k", topK,
	)

	return results, nil
}

func metaString(meta map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := meta[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
