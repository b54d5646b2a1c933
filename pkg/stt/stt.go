// Package stt provides a unified interface for speech-to-text providers.
//
// There is no meaningful no-op transcription, so unlike the tts package
// this one carries no local fallback: a process with no usable STT
// configuration cannot accept voice submissions at all, and constructors
// report that as an error instead of substituting silence.
//
// Example usage:
//
//	provider, _ := stt.NewElevenLabs(
//	    stt.WithAPIKey(os.Getenv("ELEVENLABS_API_KEY")),
//	)
//	result, _ := provider.Transcribe(ctx, wavBytes)
package stt

import "context"

// Provider defines the speech-to-text provider interface.
type Provider interface {
	// Transcribe converts recorded audio to text. An empty transcript is
	// a valid result for silent or unintelligible audio, not an error.
	Transcribe(ctx context.Context, audio []byte) (*Result, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Result is a completed transcription.
type Result struct {
	// Text is the transcript, trimmed. May be empty for silence.
	Text string

	// LanguageCode is the detected language, if the provider reports one.
	LanguageCode string

	// LatencyMs is the request round-trip time in milliseconds.
	LatencyMs int64
}
