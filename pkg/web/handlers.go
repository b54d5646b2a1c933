package web

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/xccelera/voicegate/internal/jobs"
	"github.com/xccelera/voicegate/internal/outputs"
	"github.com/xccelera/voicegate/internal/pipeline"
)

// top_k bounds for a single submission.
const (
	minTopK = 1
	maxTopK = 20
)

// handleHealth reports process liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
	AudioURL  string `json:"audio_url"`
}

// handleVoice accepts a recorded WAV clip and starts a job.
// The response returns immediately; progress is observable at the status
// endpoint and the websocket stream.
func (s *Server) handleVoice(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "multipart field 'file' is required")
	}

	if fileHeader.Size > s.maxUpload {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "uploaded file too large",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "cannot read upload")
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		return badRequest(c, "cannot read upload")
	}
	if len(audio) == 0 {
		return badRequest(c, "uploaded file is empty")
	}
	if !isWAV(audio) {
		return badRequest(c, "uploaded file is not a valid WAV")
	}

	topK, ok := parseTopK(c.FormValue("top_k"))
	if !ok {
		return badRequest(c, "top_k must be in range [1, 20]")
	}

	jobID, err := s.cfg.Runner.Submit(audio, pipeline.Options{TopK: topK})
	if err != nil {
		if errors.Is(err, pipeline.ErrNoTranscriber) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "speech-to-text is not configured",
			})
		}
		s.logger.Error("submit failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "submission failed",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(submitResponse(jobID))
}

// TextRequest is the body for text submissions.
type TextRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

// handleText accepts a typed question, skipping transcription.
func (s *Server) handleText(c *fiber.Ctx) error {
	var req TextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if req.Text == "" {
		return badRequest(c, "text is required")
	}

	topK := req.TopK
	if topK == 0 {
		topK = pipeline.DefaultTopK
	}
	if topK < minTopK || topK > maxTopK {
		return badRequest(c, "top_k must be in range [1, 20]")
	}

	jobID, err := s.cfg.Runner.SubmitText(req.Text, pipeline.Options{TopK: topK})
	if err != nil {
		s.logger.Error("submit failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "submission failed",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(submitResponse(jobID))
}

// handleJob returns the current job record. Unknown ids are 404, which is
// distinct from a known job that is still processing.
func (s *Server) handleJob(c *fiber.Ctx) error {
	job, err := s.cfg.Jobs.Get(c.Params("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		return notFound(c, "no such job")
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(job)
}

// handleAudio serves the synthesized reply once the job completed.
// Before completion, and for failed jobs, the audio is not available:
// a defined outcome, never another job's bytes.
func (s *Server) handleAudio(c *fiber.Ctx) error {
	id := c.Params("id")

	job, err := s.cfg.Jobs.Get(id)
	if errors.Is(err, jobs.ErrNotFound) {
		return notFound(c, "no such job")
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if job.Status != jobs.StatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "audio not available",
			"status": job.Status,
		})
	}

	audio, err := s.cfg.Outputs.Audio(id)
	if errors.Is(err, outputs.ErrNotAvailable) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "audio not available",
			"status": job.Status,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, audioContentType(audio))
	return c.Send(audio)
}

func submitResponse(jobID string) SubmitResponse {
	return SubmitResponse{
		JobID:     jobID,
		Status:    string(jobs.StatusReceived),
		StatusURL: "/jobs/" + jobID,
		AudioURL:  "/jobs/" + jobID + "/audio",
	}
}

func parseTopK(raw string) (int, bool) {
	if raw == "" {
		return pipeline.DefaultTopK, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minTopK || n > maxTopK {
		return 0, false
	}
	return n, true
}

func isWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

func audioContentType(data []byte) string {
	if isWAV(data) {
		return "audio/wav"
	}
	return "audio/mpeg"
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}
