// Package pipeline sequences the four stages that turn an uploaded
// recording into a spoken reply: transcribe, retrieve, generate, synthesize.
//
// Submit returns as soon as the job record exists; the stages run in a
// background goroutine, one job per goroutine, with no ordering between
// jobs. All mutable state lives in the job store; the runner keeps nothing
// between stage calls, so a job is inspectable at any point. A stage
// failure marks the job failed with a stage tag and halts the sequence;
// stages are never retried, a failed job is resubmitted as a new job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xccelera/voicegate/internal/events"
	"github.com/xccelera/voicegate/internal/jobs"
	"github.com/xccelera/voicegate/internal/outputs"
	"github.com/xccelera/voicegate/pkg/answer"
	"github.com/xccelera/voicegate/pkg/kb"
	"github.com/xccelera/voicegate/pkg/stt"
	"github.com/xccelera/voicegate/pkg/tts"
)

// DefaultTopK is the retrieval depth when the caller does not choose one.
const DefaultTopK = 5

// ErrNoTranscriber is returned by Submit when no speech-to-text backend is
// configured. This is a configuration fault: there is no meaningful
// fallback transcription, so voice submissions cannot be accepted at all.
var ErrNoTranscriber = errors.New("pipeline: no transcriber configured")

// Params wires the runner's collaborators. Store, Outputs, Events,
// Retriever, Composer and Synthesizer are required; Transcriber may be nil,
// which disables voice submissions but leaves text submissions working.
type Params struct {
	Store       jobs.Store
	Outputs     *outputs.Store
	Events      *events.Publisher
	Transcriber stt.Provider
	Retriever   kb.Store
	Composer    answer.Composer
	Synthesizer tts.Provider

	// StageTimeout bounds each provider call. Zero selects one minute.
	StageTimeout time.Duration

	Logger *slog.Logger
}

// Options tunes one submission.
type Options struct {
	// TopK is the retrieval depth. Zero selects DefaultTopK.
	TopK int
}

// Runner drives jobs through the pipeline.
type Runner struct {
	store        jobs.Store
	outputs      *outputs.Store
	events       *events.Publisher
	transcriber  stt.Provider
	retriever    kb.Store
	composer     answer.Composer
	synthesizer  tts.Provider
	stageTimeout time.Duration
	logger       *slog.Logger
}

// New creates a runner from its collaborators.
func New(p Params) (*Runner, error) {
	switch {
	case p.Store == nil:
		return nil, errors.New("pipeline: job store required")
	case p.Outputs == nil:
		return nil, errors.New("pipeline: output store required")
	case p.Events == nil:
		return nil, errors.New("pipeline: event publisher required")
	case p.Retriever == nil:
		return nil, errors.New("pipeline: retriever required")
	case p.Composer == nil:
		return nil, errors.New("pipeline: composer required")
	case p.Synthesizer == nil:
		return nil, errors.New("pipeline: synthesizer required")
	}

	if p.StageTimeout <= 0 {
		p.StageTimeout = time.Minute
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		store:        p.Store,
		outputs:      p.Outputs,
		events:       p.Events,
		transcriber:  p.Transcriber,
		retriever:    p.Retriever,
		composer:     p.Composer,
		synthesizer:  p.Synthesizer,
		stageTimeout: p.StageTimeout,
		logger:       logger.With("component", "pipeline"),
	}, nil
}

// Submit accepts a recorded clip, creates the job record, and returns its
// id immediately. The stages run in the background; their outcome is
// observable through the job store and the event publisher, never through
// this call.
func (r *Runner) Submit(audio []byte, opts Options) (string, error) {
	if r.transcriber == nil {
		return "", ErrNoTranscriber
	}

	job, err := r.store.Create()
	if err != nil {
		return "", err
	}
	if _, err := r.outputs.SaveBytes(job.ID, outputs.InputAudio, audio); err != nil {
		// The record already exists; leave it terminal, not stuck at
		// received forever.
		r.fail(job.ID, jobs.StageTranscribe, err)
		return "", err
	}

	r.events.Publish(events.Event{JobID: job.ID, Status: jobs.StatusReceived})

	go r.run(job.ID, audio, opts)
	return job.ID, nil
}

// SubmitText accepts a typed question, skipping the transcription stage.
// The job starts with its transcript already populated.
func (r *Runner) SubmitText(text string, opts Options) (string, error) {
	job, err := r.store.Create()
	if err != nil {
		return "", err
	}

	if _, err := r.store.Update(job.ID, func(j *jobs.Job) {
		j.Transcript = text
	}); err != nil {
		return "", err
	}

	r.events.Publish(events.Event{JobID: job.ID, Status: jobs.StatusReceived})
	_ = r.outputs.SaveJSON(job.ID, outputs.TranscriptJSON, map[string]string{
		"text":   text,
		"source": "agent/text",
	})

	go r.runFromTranscript(job.ID, text, opts, jobs.Timings{})
	return job.ID, nil
}

// run executes the full four-stage sequence for one voice job.
func (r *Runner) run(jobID string, audio []byte, opts Options) {
	total := time.Now()
	var timings jobs.Timings

	// Stage 1: transcribe
	if err := r.transition(jobID, jobs.StatusTranscribing, nil); err != nil {
		r.logger.Error("transition failed", "job_id", jobID, "error", err)
		return
	}

	stageStart := time.Now()
	result, err := r.callTranscribe(audio)
	timings.STTMs = time.Since(stageStart).Milliseconds()
	if err != nil {
		r.fail(jobID, jobs.StageTranscribe, err)
		return
	}

	// An empty transcript (silence) still proceeds; later stages
	// tolerate empty input.
	_ = r.outputs.SaveJSON(jobID, outputs.TranscriptJSON, map[string]string{
		"text": result.Text,
	})

	if err := r.transition(jobID, jobs.StatusRetrieving, func(j *jobs.Job) {
		j.Transcript = result.Text
	}); err != nil {
		r.logger.Error("transition failed", "job_id", jobID, "error", err)
		return
	}

	r.continueFromRetrieve(jobID, result.Text, opts, timings, total)
}

// runFromTranscript executes the sequence for a text job, starting at the
// retrieval stage.
func (r *Runner) runFromTranscript(jobID, transcript string, opts Options, timings jobs.Timings) {
	total := time.Now()
	if err := r.transition(jobID, jobs.StatusRetrieving, nil); err != nil {
		r.logger.Error("transition failed", "job_id", jobID, "error", err)
		return
	}
	r.continueFromRetrieve(jobID, transcript, opts, timings, total)
}

// continueFromRetrieve runs retrieve, generate and synthesize. The total
// timer started when the job entered the pipeline.
func (r *Runner) continueFromRetrieve(jobID, transcript string, opts Options, timings jobs.Timings, total time.Time) {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	// Stage 2: retrieve. Zero results is a valid outcome, not a failure.
	stageStart := time.Now()
	results, err := r.callRetrieve(transcript, topK)
	timings.KBMs = time.Since(stageStart).Milliseconds()
	if err != nil {
		r.fail(jobID, jobs.StageRetrieve, err)
		return
	}

	_ = r.outputs.SaveJSON(jobID, outputs.KBJSON, map[string]any{"results": results})

	if err := r.transition(jobID, jobs.StatusGenerating, nil); err != nil {
		r.logger.Error("transition failed", "job_id", jobID, "error", err)
		return
	}

	// Stage 3: generate
	stageStart = time.Now()
	reply, err := r.callCompose(transcript, results)
	timings.LLMMs = time.Since(stageStart).Milliseconds()
	if err != nil {
		r.fail(jobID, jobs.StageGenerate, err)
		return
	}

	_ = r.outputs.SaveJSON(jobID, outputs.ResponseJSON, map[string]any{
		"answer":    reply.Text,
		"citations": reply.Citations,
	})

	if err := r.transition(jobID, jobs.StatusSynthesizing, func(j *jobs.Job) {
		j.AssistantText = reply.Text
		j.Citations = reply.Citations
	}); err != nil {
		r.logger.Error("transition failed", "job_id", jobID, "error", err)
		return
	}

	// Stage 4: synthesize
	stageStart = time.Now()
	audioResult, err := r.callSynthesize(reply.Text)
	timings.TTSMs = time.Since(stageStart).Milliseconds()
	if err != nil {
		r.fail(jobID, jobs.StageSynthesize, err)
		return
	}

	if _, err := r.outputs.SaveBytes(jobID, outputs.OutputAudio, audioResult.Audio); err != nil {
		r.fail(jobID, jobs.StageSynthesize, err)
		return
	}

	timings.TotalMs = time.Since(total).Milliseconds()
	_ = r.outputs.SaveJSON(jobID, outputs.TimingsJSON, timings)

	if err := r.transition(jobID, jobs.StatusCompleted, func(j *jobs.Job) {
		j.AudioRef = jobID + "/" + outputs.OutputAudio
		j.Timings = timings
	}); err != nil {
		r.logger.Error("transition failed", "job_id", jobID, "error", err)
		return
	}

	r.logger.Info("job completed",
		"job_id", jobID,
		"stt_ms", timings.STTMs,
		"kb_ms", timings.KBMs,
		"llm_ms", timings.LLMMs,
		"tts_ms", timings.TTSMs,
		"total_ms", timings.TotalMs,
	)
}

func (r *Runner) callTranscribe(audio []byte) (*stt.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.stageTimeout)
	defer cancel()
	return r.transcriber.Transcribe(ctx, audio)
}

func (r *Runner) callRetrieve(query string, topK int) ([]kb.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.stageTimeout)
	defer cancel()
	return r.retriever.Search(ctx, query, topK)
}

func (r *Runner) callCompose(transcript string, results []kb.Result) (*answer.Answer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.stageTimeout)
	defer cancel()
	return r.composer.Compose(ctx, transcript, results)
}

func (r *Runner) callSynthesize(text string) (*tts.AudioResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.stageTimeout)
	defer cancel()
	return r.synthesizer.Synthesize(ctx, text)
}

// transition writes the status (and any stage outputs) atomically, then
// publishes the matching event. Events flow from this one goroutine per
// job, so subscribers observe them in transition order.
func (r *Runner) transition(jobID string, status jobs.Status, apply func(*jobs.Job)) error {
	_, err := r.store.Update(jobID, func(j *jobs.Job) {
		if apply != nil {
			apply(j)
		}
		j.Status = status
	})
	if err != nil {
		return err
	}
	r.events.Publish(events.Event{JobID: jobID, Status: status})
	return nil
}

// fail records a stage-tagged error and halts the sequence.
func (r *Runner) fail(jobID string, stage jobs.Stage, cause error) {
	msg := cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) {
		msg = fmt.Sprintf("timeout after %s", r.stageTimeout)
	}

	stageErr := &jobs.StageError{Stage: stage, Cause: msg}
	if _, err := r.store.Update(jobID, func(j *jobs.Job) {
		j.Status = jobs.StatusFailed
		j.Error = stageErr
	}); err != nil {
		r.logger.Error("failed to record job failure", "job_id", jobID, "error", err)
		return
	}

	r.events.Publish(events.Event{
		JobID:  jobID,
		Status: jobs.StatusFailed,
		Detail: stageErr.Error(),
	})

	r.logger.Warn("job failed",
		"job_id", jobID,
		"stage", stage,
		"cause", msg,
	)
}
