// Package outputs persists per-job artifacts under a job-scoped directory.
//
// Each job gets its own directory holding the uploaded audio, the
// synthesized reply, and JSON artifacts for each pipeline stage. These are
// inspection artifacts; the jobs store remains the authoritative record.
package outputs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Well-known artifact names within a job directory.
const (
	InputAudio     = "input.wav"
	OutputAudio    = "output.wav"
	TranscriptJSON = "transcript.json"
	KBJSON         = "kb.json"
	ResponseJSON   = "response.json"
	TimingsJSON    = "timings.json"
)

// ErrNotAvailable is returned when an artifact does not exist yet,
// including audio requested before synthesis completed.
var ErrNotAvailable = errors.New("outputs: artifact not available")

// Store writes job artifacts beneath a base directory.
type Store struct {
	baseDir string
}

// NewStore creates the base directory if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("outputs: create base dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// JobDir returns the directory for a job, creating it if needed.
func (s *Store) JobDir(jobID string) (string, error) {
	dir := filepath.Join(s.baseDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("outputs: create job dir: %w", err)
	}
	return dir, nil
}

// SaveBytes writes a raw artifact and returns its path.
func (s *Store) SaveBytes(jobID, name string, data []byte) (string, error) {
	dir, err := s.JobDir(jobID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("outputs: write %s: %w", name, err)
	}
	return path, nil
}

// SaveJSON writes an artifact as indented JSON.
func (s *Store) SaveJSON(jobID, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("outputs: marshal %s: %w", name, err)
	}
	_, err = s.SaveBytes(jobID, name, data)
	return err
}

// ReadJSON loads a JSON artifact into out. Returns ErrNotAvailable if the
// artifact has not been written.
func (s *Store) ReadJSON(jobID, name string, out any) error {
	data, err := s.ReadBytes(jobID, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("outputs: decode %s: %w", name, err)
	}
	return nil
}

// ReadBytes loads a raw artifact. Returns ErrNotAvailable if missing.
func (s *Store) ReadBytes(jobID, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, jobID, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("outputs: read %s: %w", name, err)
	}
	return data, nil
}

// Audio returns the synthesized reply for a job, or ErrNotAvailable if
// synthesis has not produced one.
func (s *Store) Audio(jobID string) ([]byte, error) {
	return s.ReadBytes(jobID, OutputAudio)
}
