// Package tts provides a unified interface for text-to-speech providers.
//
// The primary backend is ElevenLabs; a credential-free Tone provider
// generates a minimal playable WAV so the pipeline can complete end-to-end
// without any external service. All providers implement the Provider
// interface, enabling seamless switching without changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewElevenLabs(
//	    tts.WithAPIKey(os.Getenv("ELEVENLABS_API_KEY")),
//	    tts.WithVoice("your-voice-id"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains the encoded audio bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider switching.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis round-trip time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// MIMEType of the encoded audio (e.g. audio/mpeg, audio/wav).
	MIMEType string

	// SampleRate in Hz (e.g. 16000, 44100).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int
}

// VoiceSettings controls voice characteristics for providers that support it.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	// Lower values = more expressive/variable, higher = more consistent.
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64
}

// DefaultVoiceSettings returns the settings used by the gateway's voice.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.4,
		SimilarityBoost: 0.7,
	}
}
