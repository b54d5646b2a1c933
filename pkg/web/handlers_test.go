package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xccelera/voicegate/internal/events"
	"github.com/xccelera/voicegate/internal/jobs"
	"github.com/xccelera/voicegate/internal/outputs"
	"github.com/xccelera/voicegate/internal/pipeline"
	"github.com/xccelera/voicegate/pkg/answer"
	"github.com/xccelera/voicegate/pkg/kb"
	"github.com/xccelera/voicegate/pkg/stt"
	"github.com/xccelera/voicegate/pkg/tts"
	"github.com/xccelera/voicegate/pkg/web"
)

type testGateway struct {
	server *web.Server
	store  *jobs.MemStore
}

func newGateway(t *testing.T, transcriber stt.Provider) *testGateway {
	t.Helper()

	out, err := outputs.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("outputs: %v", err)
	}
	store := jobs.NewMemStore()
	pub := events.NewPublisher(time.Minute, nil)

	runner, err := pipeline.New(pipeline.Params{
		Store:       store,
		Outputs:     out,
		Events:      pub,
		Transcriber: transcriber,
		Retriever: kb.NewKeyword([]kb.Document{
			{ID: "pto.md", Text: "Employees accrue 20 vacation days per year.", Source: "pto.md"},
		}),
		Composer:    answer.NewTemplate(),
		Synthesizer: tts.NewTone(),
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	server := web.NewServer(web.Config{
		AppName:        "voicegate-test",
		MaxUploadBytes: 1 << 20,
		Runner:         runner,
		Jobs:           store,
		Outputs:        out,
		Events:         pub,
	})
	return &testGateway{server: server, store: store}
}

func wavUpload(t *testing.T, field, filename string, payload []byte, topK string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write(payload)
	if topK != "" {
		mw.WriteField("top_k", topK)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func wavBytes() []byte {
	return tts.EncodeWAV(make([]byte, 320), 16000, 1)
}

func decodeSubmit(t *testing.T, resp *http.Response) web.SubmitResponse {
	t.Helper()
	var out web.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	return out
}

func waitCompleted(t *testing.T, store jobs.Store, jobID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(jobID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if job.Status.Terminal() {
			if job.Status != jobs.StatusCompleted {
				t.Fatalf("job failed: %+v", job.Error)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never completed")
}

func TestHealth(t *testing.T) {
	gw := newGateway(t, stt.NewMock())

	resp, err := gw.server.App().Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestVoiceSubmission(t *testing.T) {
	gw := newGateway(t, stt.WithTranscript("how many vacation days"))

	body, contentType := wavUpload(t, "file", "clip.wav", wavBytes(), "")
	req := httptest.NewRequest("POST", "/agent/voice", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := gw.server.App().Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	submitted := decodeSubmit(t, resp)
	if submitted.JobID == "" {
		t.Fatal("expected job id")
	}
	if submitted.Status != "received" {
		t.Errorf("expected received, got %s", submitted.Status)
	}
	if submitted.StatusURL != "/jobs/"+submitted.JobID {
		t.Errorf("unexpected status url %s", submitted.StatusURL)
	}

	// Status must be readable immediately after the 202.
	statusResp, err := gw.server.App().Test(httptest.NewRequest("GET", submitted.StatusURL, nil))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if statusResp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200 for fresh job, got %d", statusResp.StatusCode)
	}

	waitCompleted(t, gw.store, submitted.JobID)

	audioResp, err := gw.server.App().Test(httptest.NewRequest("GET", submitted.AudioURL, nil))
	if err != nil {
		t.Fatalf("audio: %v", err)
	}
	if audioResp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 audio, got %d", audioResp.StatusCode)
	}
	if ct := audioResp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("expected audio/wav, got %s", ct)
	}
	audio, _ := io.ReadAll(audioResp.Body)
	if len(audio) == 0 {
		t.Error("expected audio body")
	}
}

func TestVoiceSubmissionRejections(t *testing.T) {
	gw := newGateway(t, stt.NewMock())
	app := gw.server.App()

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/agent/voice", strings.NewReader(""))
		resp, _ := app.Test(req)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("not a wav", func(t *testing.T) {
		body, ct := wavUpload(t, "file", "clip.wav", []byte("plain text, not audio"), "")
		req := httptest.NewRequest("POST", "/agent/voice", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		body, ct := wavUpload(t, "file", "clip.wav", nil, "")
		req := httptest.NewRequest("POST", "/agent/voice", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("top_k out of range", func(t *testing.T) {
		body, ct := wavUpload(t, "file", "clip.wav", wavBytes(), "21")
		req := httptest.NewRequest("POST", "/agent/voice", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestVoiceWithoutTranscriber(t *testing.T) {
	gw := newGateway(t, nil)

	body, ct := wavUpload(t, "file", "clip.wav", wavBytes(), "")
	req := httptest.NewRequest("POST", "/agent/voice", body)
	req.Header.Set("Content-Type", ct)

	resp, err := gw.server.App().Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestTextSubmission(t *testing.T) {
	gw := newGateway(t, nil)
	app := gw.server.App()

	payload, _ := json.Marshal(web.TextRequest{Text: "vacation days", TopK: 3})
	req := httptest.NewRequest("POST", "/agent/text", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	submitted := decodeSubmit(t, resp)
	waitCompleted(t, gw.store, submitted.JobID)

	statusResp, _ := app.Test(httptest.NewRequest("GET", submitted.StatusURL, nil))
	var job jobs.Job
	if err := json.NewDecoder(statusResp.Body).Decode(&job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Transcript != "vacation days" {
		t.Errorf("expected transcript echoed, got %q", job.Transcript)
	}
	if !strings.Contains(job.AssistantText, "20 vacation days") {
		t.Errorf("expected grounded reply, got %q", job.AssistantText)
	}

	t.Run("empty text rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/agent/text", strings.NewReader(`{"text":""}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestJobLookup(t *testing.T) {
	gw := newGateway(t, stt.NewMock())
	app := gw.server.App()

	t.Run("unknown job", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("GET", "/jobs/nope", nil))
		if resp.StatusCode != fiber.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown audio", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("GET", "/jobs/nope/audio", nil))
		if resp.StatusCode != fiber.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestAudioBeforeCompletion(t *testing.T) {
	gw := newGateway(t, stt.NewMock())

	// A job that exists but has not completed must yield a defined
	// conflict, never another job's bytes.
	job, err := gw.store.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := gw.server.App().Test(httptest.NewRequest("GET", "/jobs/"+job.ID+"/audio", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != string(jobs.StatusReceived) {
		t.Errorf("expected current status in body, got %q", body["status"])
	}
}
