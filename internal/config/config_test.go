package config_test

import (
	"testing"
	"time"

	"github.com/xccelera/voicegate/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	s := config.Load()

	if s.AppName != "voicegate" {
		t.Errorf("expected voicegate, got %s", s.AppName)
	}
	if s.ListenAddr != config.DefaultListenAddr {
		t.Errorf("expected %s, got %s", config.DefaultListenAddr, s.ListenAddr)
	}
	if s.MaxUploadBytes != config.DefaultMaxUploadBytes {
		t.Errorf("expected %d, got %d", config.DefaultMaxUploadBytes, s.MaxUploadBytes)
	}
	if s.StageTimeout != config.DefaultStageTimeout {
		t.Errorf("expected %v, got %v", config.DefaultStageTimeout, s.StageTimeout)
	}
	if s.ElevenLabsVoiceID != config.DefaultVoiceID {
		t.Errorf("expected default voice, got %s", s.ElevenLabsVoiceID)
	}
	if len(s.AllowedOrigins) == 0 {
		t.Error("expected default origins")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	s := config.Load()

	if s.ListenAddr != ":9999" {
		t.Errorf("expected :9999, got %s", s.ListenAddr)
	}
	if s.MaxUploadBytes != 1<<20 {
		t.Errorf("expected 1MiB, got %d", s.MaxUploadBytes)
	}
	if len(s.AllowedOrigins) != 2 || s.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", s.AllowedOrigins)
	}
}

func TestStageTimeoutFormats(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"30", 30 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"45s", 45 * time.Second},
		{"2m", 2 * time.Minute},
		{"bogus", config.DefaultStageTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			t.Setenv("STAGE_TIMEOUT", tc.raw)
			if got := config.Load().StageTimeout; got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFeaturePredicates(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("ELEVENLABS_API_KEY", "")
		t.Setenv("PINECONE_API_KEY", "")
		s := config.Load()
		if s.UseLLM() || s.SpeechConfigured() || s.SemanticSearch() {
			t.Error("expected all predicates false with no credentials")
		}
	})

	t.Run("partial pinecone stays keyword", func(t *testing.T) {
		t.Setenv("PINECONE_API_KEY", "k")
		t.Setenv("PINECONE_INDEX", "idx")
		t.Setenv("PINECONE_HOST", "")
		if config.Load().SemanticSearch() {
			t.Error("expected semantic search off without host")
		}
	})

	t.Run("fully configured", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "k")
		t.Setenv("ELEVENLABS_API_KEY", "k")
		t.Setenv("PINECONE_API_KEY", "k")
		t.Setenv("PINECONE_INDEX", "idx")
		t.Setenv("PINECONE_HOST", "https://idx.example")
		s := config.Load()
		if !s.UseLLM() || !s.SpeechConfigured() || !s.SemanticSearch() {
			t.Error("expected all predicates true")
		}
	})
}
