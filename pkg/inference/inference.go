// Package inference provides a unified client for chat and embeddings.
//
// The package abstracts chat completions and text embeddings behind a single
// Provider interface, working against any OpenAI-compatible API (OpenAI,
// Ollama, vLLM, Together, and others).
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    inference.WithModel("gpt-4o-mini"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    Messages: []inference.Message{
//	        {Role: inference.RoleUser, Content: "Hello!"},
//	    },
//	})
package inference

import "context"

// Provider is the unified inference interface for chat and embeddings.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Embed generates vector embeddings for text.
	Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation history.
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	Temperature float64
}

// ChatResponse from chat completion.
type ChatResponse struct {
	// Message is the assistant's response.
	Message Message

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// EmbedRequest for text embeddings.
type EmbedRequest struct {
	// Input texts to embed.
	Input []string

	// Model overrides the default embedding model.
	Model string
}

// EmbedResponse with vector embeddings.
type EmbedResponse struct {
	// Embeddings are the vector representations, one per input.
	Embeddings [][]float64

	// Usage tracks token consumption.
	Usage Usage

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
