package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xccelera/voicegate/pkg/inference"
	"github.com/xccelera/voicegate/pkg/kb"
)

// DefaultSystemPrompt constrains the model to the retrieved context.
const DefaultSystemPrompt = "You are the HR assistant of xccelera.ai. " +
	"Answer ONLY from the provided knowledge base context. " +
	"If the context is missing the answer, ask a clarifying question."

// LLM composes replies with a hosted language model.
type LLM struct {
	provider     inference.Provider
	systemPrompt string
	logger       *slog.Logger
}

// LLMOption configures an LLM composer.
type LLMOption func(*LLM)

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) LLMOption {
	return func(l *LLM) { l.systemPrompt = prompt }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(l *LLM) { l.logger = logger }
}

// NewLLM creates a composer backed by the given inference provider.
func NewLLM(provider inference.Provider, opts ...LLMOption) (*LLM, error) {
	if provider == nil {
		return nil, fmt.Errorf("answer: inference provider required")
	}
	l := &LLM{
		provider:     provider,
		systemPrompt: DefaultSystemPrompt,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "answer.llm")
	return l, nil
}

// Compose asks the model to answer from the retrieved context. When no
// passage is usable it returns the canned no-match reply instead of
// calling the model, since there is nothing to ground an answer on.
func (l *LLM) Compose(ctx context.Context, transcript string, results []kb.Result) (*Answer, error) {
	snippets, citations := splitResults(results)

	if len(snippets) == 0 {
		return &Answer{Text: NoMatchReply, Citations: citations}, nil
	}

	messages := []inference.Message{
		{Role: inference.RoleSystem, Content: l.systemPrompt},
		{Role: inference.RoleAssistant, Content: "KB Context:\n" + strings.Join(snippets, "\n\n")},
		{Role: inference.RoleUser, Content: transcript},
	}

	resp, err := l.provider.Chat(ctx, &inference.ChatRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("answer: generate: %w", err)
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		text = "I need a little more context to answer this accurately."
	}

	l.logger.Debug("composed reply",
		"chars", len(text),
		"citations", len(citations),
		"latency_ms", resp.LatencyMs,
	)

	return &Answer{
		Text:      withSources(text, citations),
		Citations: citations,
	}, nil
}
