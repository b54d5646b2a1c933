package kb_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xccelera/voicegate/pkg/kb"
)

func fixedEmbedder(vec []float64) kb.EmbedderFunc {
	return func(ctx context.Context, text string) ([]float64, error) {
		return vec, nil
	}
}

func TestNewPineconeValidation(t *testing.T) {
	embed := fixedEmbedder([]float64{0.1})

	if _, err := kb.NewPinecone(nil, kb.WithAPIKey("k"), kb.WithHost("h")); !errors.Is(err, kb.ErrNoEmbedder) {
		t.Errorf("expected ErrNoEmbedder, got %v", err)
	}
	if _, err := kb.NewPinecone(embed, kb.WithHost("h")); !errors.Is(err, kb.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	if _, err := kb.NewPinecone(embed, kb.WithAPIKey("k")); !errors.Is(err, kb.ErrNoHost) {
		t.Errorf("expected ErrNoHost, got %v", err)
	}
}

func TestPineconeSearch(t *testing.T) {
	var gotReq struct {
		Vector          []float64 `json:"vector"`
		TopK            int       `json:"topK"`
		IncludeMetadata bool      `json:"includeMetadata"`
		Namespace       string    `json:"namespace"`
	}
	var gotAPIKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAPIKey = r.Header.Get("Api-Key")
		json.NewDecoder(r.Body).Decode(&gotReq)

		json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{
					"id":    "doc-1",
					"score": 0.92,
					"metadata": map[string]any{
						"text":   "Vacation accrues monthly.",
						"source": "pto.md",
					},
				},
				{
					"id":       "doc-2",
					"score":    0.41,
					"metadata": map[string]any{"category": "misc"},
				},
				{
					"id":    "doc-3",
					"score": 0.33,
					"metadata": map[string]any{
						"content": "Stipend details.",
					},
				},
			},
		})
	}))
	defer server.Close()

	store, err := kb.NewPinecone(fixedEmbedder([]float64{0.1, 0.2}),
		kb.WithAPIKey("secret"),
		kb.WithHost(server.URL),
		kb.WithNamespace("hr"),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	results, err := store.Search(context.Background(), "vacation", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if gotAPIKey != "secret" {
		t.Errorf("expected Api-Key header, got %q", gotAPIKey)
	}
	if gotReq.TopK != 5 || !gotReq.IncludeMetadata || gotReq.Namespace != "hr" {
		t.Errorf("unexpected query payload: %+v", gotReq)
	}
	if len(gotReq.Vector) != 2 {
		t.Errorf("expected embedded vector in payload, got %v", gotReq.Vector)
	}

	// doc-2 has no text metadata and must be skipped.
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document.Source != "pto.md" || results[0].Score != 0.92 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Document.ID != "doc-3" || results[1].Document.Source != "doc-3" {
		t.Errorf("expected id fallback for source, got %+v", results[1].Document)
	}
	if results[1].Document.Text != "Stipend details." {
		t.Errorf("expected content metadata fallback, got %q", results[1].Document.Text)
	}
}

func TestPineconeSearchErrors(t *testing.T) {
	t.Run("embedder failure", func(t *testing.T) {
		failing := kb.EmbedderFunc(func(ctx context.Context, text string) ([]float64, error) {
			return nil, errors.New("embed down")
		})
		store, err := kb.NewPinecone(failing, kb.WithAPIKey("k"), kb.WithHost("https://example.test"))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if _, err := store.Search(context.Background(), "q", 5); err == nil {
			t.Error("expected error from failing embedder")
		}
	})

	t.Run("index error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()

		store, err := kb.NewPinecone(fixedEmbedder([]float64{0.1}),
			kb.WithAPIKey("k"), kb.WithHost(server.URL))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if _, err := store.Search(context.Background(), "q", 5); err == nil {
			t.Error("expected error on non-200 response")
		}
	})

	t.Run("blank query short-circuits", func(t *testing.T) {
		store, err := kb.NewPinecone(fixedEmbedder([]float64{0.1}),
			kb.WithAPIKey("k"), kb.WithHost("https://example.test"))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		results, err := store.Search(context.Background(), "  ", 5)
		if err != nil || results != nil {
			t.Errorf("expected nil, nil for blank query, got %v, %v", results, err)
		}
	})
}
