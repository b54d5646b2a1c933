// Package jobs defines the job lifecycle record and its store.
//
// A Job is the single source of truth for one submitted recording as it
// moves through the pipeline. The store owns all mutable job state; the
// orchestrator and the HTTP layer only read and write through it.
package jobs

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

// Job statuses, in pipeline order. A job only advances forward through
// this sequence, or jumps directly to StatusFailed.
const (
	StatusReceived     Status = "received"
	StatusTranscribing Status = "transcribing"
	StatusRetrieving   Status = "retrieving"
	StatusGenerating   Status = "generating"
	StatusSynthesizing Status = "synthesizing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var statusRank = map[Status]int{
	StatusReceived:     0,
	StatusTranscribing: 1,
	StatusRetrieving:   2,
	StatusGenerating:   3,
	StatusSynthesizing: 4,
	StatusCompleted:    5,
	StatusFailed:       6,
}

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanAdvance reports whether a transition from s to next is legal.
// Forward moves and the jump to failed are allowed; regressions and
// transitions out of a terminal status are not.
func (s Status) CanAdvance(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Stage identifies one pipeline step, used to tag stage errors and timings.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageRetrieve   Stage = "retrieve"
	StageGenerate   Stage = "generate"
	StageSynthesize Stage = "synthesize"
)

// StageError records where and why a job failed.
type StageError struct {
	Stage Stage  `json:"stage"`
	Cause string `json:"cause"`
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Cause)
}

// Timings holds per-stage wall-clock durations in milliseconds.
type Timings struct {
	STTMs   int64 `json:"stt_ms"`
	KBMs    int64 `json:"kb_ms"`
	LLMMs   int64 `json:"llm_ms"`
	TTSMs   int64 `json:"tts_ms"`
	TotalMs int64 `json:"total_ms"`
}

// Job is the lifecycle record for one submitted recording.
// Fields are populated strictly in stage order.
type Job struct {
	ID            string      `json:"id"`
	Status        Status      `json:"status"`
	Transcript    string      `json:"transcript,omitempty"`
	Citations     []string    `json:"citations,omitempty"`
	AssistantText string      `json:"assistant_text,omitempty"`
	AudioRef      string      `json:"audio_ref,omitempty"`
	Error         *StageError `json:"error,omitempty"`
	Timings       Timings     `json:"timings_ms"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Clone returns a deep copy so readers never alias store-owned state.
func (j *Job) Clone() *Job {
	cp := *j
	if j.Citations != nil {
		cp.Citations = append([]string(nil), j.Citations...)
	}
	if j.Error != nil {
		e := *j.Error
		cp.Error = &e
	}
	return &cp
}
