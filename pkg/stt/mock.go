package stt

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns a fixed transcript.
	TranscribeFunc func(ctx context.Context, audio []byte) (*Result, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method     string
	AudioBytes int
	Time       time.Time
}

// NewMock creates a mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio []byte) (*Result, error) {
			return &Result{Text: "mock transcript", LatencyMs: 1}, nil
		},
	}
}

// WithTranscript creates a mock that always returns the given transcript.
func WithTranscript(text string) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio []byte) (*Result, error) {
			return &Result{Text: text, LatencyMs: 1}, nil
		},
	}
}

// WithError creates a mock whose methods all fail with err.
func WithError(err error) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio []byte) (*Result, error) {
			return nil, WrapError("mock", err)
		},
		HealthFunc: func(ctx context.Context) error {
			return WrapError("mock", err)
		},
	}
}

// Transcribe calls TranscribeFunc and records the call.
func (m *Mock) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	m.recordCall("Transcribe", len(audio))
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio)
	}
	return nil, WrapError("mock", ErrNotConfigured)
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.recordCall("Health", 0)
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close records the call and returns nil.
func (m *Mock) Close() error {
	m.recordCall("Close", 0)
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

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Mock) recordCall(method string, audioBytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, AudioBytes: audioBytes, Time: time.Now()})
}
