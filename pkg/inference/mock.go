package inference

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// ChatFunc is called when Chat is invoked.
	// If nil, returns a canned response echoing the last user message.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// EmbedFunc is called when Embed is invoked.
	// If nil, returns a fixed small vector per input.
	EmbedFunc func(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			var last string
			for _, m := range req.Messages {
				if m.Role == RoleUser {
					last = m.Content
				}
			}
			return &ChatResponse{
				Message:      Message{Role: RoleAssistant, Content: "mock reply to: " + last},
				FinishReason: "stop",
				LatencyMs:    1,
			}, nil
		},
		EmbedFunc: func(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error) {
			out := make([][]float64, len(req.Input))
			for i := range req.Input {
				out[i] = []float64{0.1, 0.2, 0.3}
			}
			return &EmbedResponse{Embeddings: out, LatencyMs: 1}, nil
		},
	}
}

// WithError creates a mock whose methods all fail with err.
func WithError(err error) *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return nil, WrapError("mock", err)
		},
		EmbedFunc: func(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error) {
			return nil, WrapError("mock", err)
		},
		HealthFunc: func(ctx context.Context) error {
			return WrapError("mock", err)
		},
	}
}

// Chat calls ChatFunc and records the call.
func (m *Mock) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.recordCall("Chat")
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Embed calls EmbedFunc and records the call.
func (m *Mock) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error) {
	m.recordCall("Embed")
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, req)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.recordCall("Health")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close records the call and returns nil.
func (m *Mock) Close() error {
	m.recordCall("Close")
	return nil
}

// Calls returns a copy of all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns the number of calls to the named method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *Mock) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Time: time.Now()})
}
