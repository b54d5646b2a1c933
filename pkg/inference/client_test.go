package inference_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xccelera/voicegate/pkg/inference"
)

func chatServer(t *testing.T, gotReq *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/completions":
			json.NewDecoder(r.Body).Decode(gotReq)
			json.NewEncoder(w).Encode(map[string]any{
				"model": "gpt-4o-mini",
				"choices": []map[string]any{
					{
						"message":       map[string]any{"content": "hello back"},
						"finish_reason": "stop",
					},
				},
				"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
			})
		case "/embeddings":
			json.NewDecoder(r.Body).Decode(gotReq)
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"embedding": []float64{0.1, 0.2}},
					{"embedding": []float64{0.3, 0.4}},
				},
				"usage": map[string]any{"prompt_tokens": 4, "total_tokens": 4},
			})
		case "/models":
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClientChat(t *testing.T) {
	var gotReq map[string]any
	server := chatServer(t, &gotReq)
	defer server.Close()

	client, err := inference.NewClient(
		inference.WithBaseURL(server.URL),
		inference.WithAPIKey("test-key"),
		inference.WithModel("gpt-4o-mini"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	resp, err := client.Chat(context.Background(), &inference.ChatRequest{
		Messages: []inference.Message{{Role: inference.RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if resp.Message.Content != "hello back" {
		t.Errorf("expected hello back, got %q", resp.Message.Content)
	}
	if resp.Message.Role != inference.RoleAssistant {
		t.Errorf("expected assistant role, got %s", resp.Message.Role)
	}
	if resp.Usage.TotalTokens != 13 {
		t.Errorf("expected 13 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if gotReq["model"] != "gpt-4o-mini" {
		t.Errorf("expected default model in payload, got %v", gotReq["model"])
	}
}

func TestClientEmbed(t *testing.T) {
	var gotReq map[string]any
	server := chatServer(t, &gotReq)
	defer server.Close()

	client, err := inference.NewClient(inference.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.Embed(context.Background(), &inference.EmbedRequest{
		Input: []string{"alpha", "beta"},
	})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(resp.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(resp.Embeddings))
	}
	if resp.Embeddings[0][0] != 0.1 {
		t.Errorf("unexpected embedding payload: %v", resp.Embeddings[0])
	}
	if gotReq["model"] != "text-embedding-3-small" {
		t.Errorf("expected default embed model, got %v", gotReq["model"])
	}
}

func TestClientHealth(t *testing.T) {
	var gotReq map[string]any
	server := chatServer(t, &gotReq)
	defer server.Close()

	client, _ := inference.NewClient(inference.WithBaseURL(server.URL))
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "code": "invalid_api_key"},
		})
	}))
	defer server.Close()

	client, _ := inference.NewClient(inference.WithBaseURL(server.URL))
	_, err := client.Chat(context.Background(), &inference.ChatRequest{
		Messages: []inference.Message{{Role: inference.RoleUser, Content: "x"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *inference.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", apiErr.StatusCode)
	}
	if !apiErr.IsUnauthorized() {
		t.Error("expected unauthorized classification")
	}
}

func TestClientEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client, _ := inference.NewClient(inference.WithBaseURL(server.URL))
	_, err := client.Chat(context.Background(), &inference.ChatRequest{
		Messages: []inference.Message{{Role: inference.RoleUser, Content: "x"}},
	})
	if !errors.Is(err, inference.ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}
