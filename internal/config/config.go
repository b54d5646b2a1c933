// Package config loads process-wide configuration for voicegate.
//
// Settings are read once at startup from the environment (optionally seeded
// from a .env file) and passed to each component at construction. Nothing in
// the codebase reads the environment after Load returns.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultListenAddr     = ":8080"
	DefaultOpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultEmbedModel     = "text-embedding-3-small"
	DefaultVoiceID        = "21m00Tcm4TlvDq8ikWAM"
	DefaultNamespace      = "xccelera-hr"
	DefaultOutputDir      = "/tmp/voicegate_outputs"
	DefaultKBDir          = "./kb"
	DefaultMaxUploadBytes = 20 << 20 // 20 MiB
	DefaultStageTimeout   = 60 * time.Second
)

// Settings is the immutable process configuration.
type Settings struct {
	AppName     string
	Environment string
	LogLevel    string
	ListenAddr  string

	// OpenAI-compatible chat + embeddings API
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	EmbedModel    string

	// ElevenLabs speech-to-text and text-to-speech
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// Pinecone vector index (semantic retrieval)
	PineconeKey       string
	PineconeIndex     string
	PineconeHost      string
	PineconeNamespace string

	// Local knowledge base directory (keyword retrieval fallback)
	KBDir string

	// Job output artifacts
	OutputDir      string
	MaxUploadBytes int64

	// Per-provider-call timeout for pipeline stages
	StageTimeout time.Duration

	// CORS
	AllowedOrigins []string
}

// Load reads settings from the environment. A .env file in the working
// directory is applied first if present; real environment variables win.
func Load() *Settings {
	_ = godotenv.Load()

	return &Settings{
		AppName:     envStr("APP_NAME", "voicegate"),
		Environment: envStr("ENVIRONMENT", "development"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		ListenAddr:  envStr("LISTEN_ADDR", DefaultListenAddr),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envStr("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		OpenAIModel:   envStr("OPENAI_MODEL", DefaultOpenAIModel),
		EmbedModel:    envStr("EMBEDDING_MODEL", DefaultEmbedModel),

		ElevenLabsKey:     os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: envStr("ELEVENLABS_VOICE_ID", DefaultVoiceID),

		PineconeKey:       os.Getenv("PINECONE_API_KEY"),
		PineconeIndex:     os.Getenv("PINECONE_INDEX"),
		PineconeHost:      os.Getenv("PINECONE_HOST"),
		PineconeNamespace: envStr("PINECONE_NAMESPACE", DefaultNamespace),

		KBDir: envStr("KB_DIR", DefaultKBDir),

		OutputDir:      envStr("OUTPUT_DIR", DefaultOutputDir),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),

		StageTimeout: envDuration("STAGE_TIMEOUT", DefaultStageTimeout),

		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8000",
		}),
	}
}

// SemanticSearch reports whether the Pinecone index is fully configured.
// All three values are required; a partial configuration selects the
// keyword fallback rather than failing at startup.
func (s *Settings) SemanticSearch() bool {
	return s.PineconeKey != "" && s.PineconeIndex != "" && s.PineconeHost != ""
}

// UseLLM reports whether the hosted language model is available.
func (s *Settings) UseLLM() bool {
	return s.OpenAIKey != ""
}

// SpeechConfigured reports whether ElevenLabs speech services are available.
func (s *Settings) SpeechConfigured() bool {
	return s.ElevenLabsKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	// Accept plain seconds or a Go duration string.
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
