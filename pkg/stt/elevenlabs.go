package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	elevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	providerElevenLabs = "elevenlabs"
)

// ElevenLabs model IDs.
const (
	// ModelScribeV1 is the general-purpose transcription model.
	ModelScribeV1 = "scribe_v1"
)

// ElevenLabs implements Provider for the ElevenLabs speech-to-text API.
type ElevenLabs struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewElevenLabs creates a new ElevenLabs STT provider.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}

	return &ElevenLabs{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "stt.elevenlabs"),
		baseURL: baseURL,
	}, nil
}

// Transcribe uploads the audio and returns the transcript.
func (e *ElevenLabs) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	if len(audio) == 0 {
		return nil, WrapError(providerElevenLabs, ErrEmptyAudio)
	}

	start := time.Now()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "input.wav")
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("build form: %w", err))
	}
	if _, err := part.Write(audio); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("write audio: %w", err))
	}
	if err := mw.WriteField("model_id", e.config.ModelID); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("write field: %w", err))
	}
	if err := mw.Close(); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("close form: %w", err))
	}

	url := e.baseURL + "/speech-to-text"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("xi-api-key", e.config.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, WrapError(providerElevenLabs, err)
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, e.parseError(resp)
	}

	var payload struct {
		Text         string `json:"text"`
		LanguageCode string `json:"language_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("decode response: %w", err))
	}

	text := strings.TrimSpace(payload.Text)

	e.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(text),
		"latency_ms", latency,
		"model", e.config.ModelID,
	)

	return &Result{
		Text:         text,
		LanguageCode: payload.LanguageCode,
		LatencyMs:    latency,
	}, nil
}

// Health verifies the API key against the user endpoint.
func (e *ElevenLabs) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+"/user", nil)
	if err != nil {
		return WrapError(providerElevenLabs, err)
	}
	req.Header.Set("xi-api-key", e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return WrapError(providerElevenLabs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return e.parseError(resp)
	}
	return nil
}

// Close releases resources. The HTTP client has none to release.
func (e *ElevenLabs) Close() error {
	return nil
}

func (e *ElevenLabs) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var detail struct {
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail.Message != "" {
		msg = detail.Detail.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Provider:   providerElevenLabs,
	}
}
