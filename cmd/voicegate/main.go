// voicegate: voice assistant gateway.
// Accepts recorded questions, runs them through transcription, knowledge
// retrieval, response generation and speech synthesis, and serves the reply.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xccelera/voicegate/internal/config"
	"github.com/xccelera/voicegate/internal/events"
	"github.com/xccelera/voicegate/internal/jobs"
	"github.com/xccelera/voicegate/internal/log"
	"github.com/xccelera/voicegate/internal/outputs"
	"github.com/xccelera/voicegate/internal/pipeline"
	"github.com/xccelera/voicegate/pkg/answer"
	"github.com/xccelera/voicegate/pkg/inference"
	"github.com/xccelera/voicegate/pkg/kb"
	"github.com/xccelera/voicegate/pkg/stt"
	"github.com/xccelera/voicegate/pkg/tts"
	"github.com/xccelera/voicegate/pkg/web"
)

func main() {
	settings := config.Load()
	log.Init(settings.LogLevel)
	logger := log.L()

	logger.Info("starting",
		"app", settings.AppName,
		"environment", settings.Environment,
		"semantic_search", settings.SemanticSearch(),
		"llm", settings.UseLLM(),
		"speech", settings.SpeechConfigured(),
	)

	outputStore, err := outputs.NewStore(settings.OutputDir)
	if err != nil {
		logger.Error("output store init failed", "error", err)
		os.Exit(1)
	}

	jobStore := jobs.NewMemStore()
	publisher := events.NewPublisher(events.DefaultIdleTimeout, logger)

	// One inference client serves both response generation and query
	// embedding when an OpenAI key is present.
	var llm inference.Provider
	if settings.UseLLM() {
		client, err := inference.NewClient(
			inference.WithBaseURL(settings.OpenAIBaseURL),
			inference.WithAPIKey(settings.OpenAIKey),
			inference.WithModel(settings.OpenAIModel),
			inference.WithEmbedModel(settings.EmbedModel),
			inference.WithTimeout(settings.StageTimeout),
			inference.WithLogger(logger),
		)
		if err != nil {
			logger.Error("inference client init failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		llm = client
	}

	retriever := buildRetriever(settings, llm)
	composer := buildComposer(settings, llm)
	transcriber := buildTranscriber(settings)
	synthesizer := buildSynthesizer(settings)

	runner, err := pipeline.New(pipeline.Params{
		Store:        jobStore,
		Outputs:      outputStore,
		Events:       publisher,
		Transcriber:  transcriber,
		Retriever:    retriever,
		Composer:     composer,
		Synthesizer:  synthesizer,
		StageTimeout: settings.StageTimeout,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("pipeline init failed", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(web.Config{
		AppName:        settings.AppName,
		AllowedOrigins: settings.AllowedOrigins,
		MaxUploadBytes: settings.MaxUploadBytes,
		Runner:         runner,
		Jobs:           jobStore,
		Outputs:        outputStore,
		Events:         publisher,
		Logger:         logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(settings.ListenAddr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		if err := server.Shutdown(); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

// buildRetriever selects the knowledge backend once at startup: the
// Pinecone index when fully configured (it needs the inference client to
// embed queries), otherwise keyword search over the local document set.
func buildRetriever(settings *config.Settings, llm inference.Provider) kb.Store {
	if settings.SemanticSearch() && llm != nil {
		embedder := kb.EmbedderFunc(func(ctx context.Context, text string) ([]float64, error) {
			resp, err := llm.Embed(ctx, &inference.EmbedRequest{Input: []string{text}})
			if err != nil {
				return nil, err
			}
			return resp.Embeddings[0], nil
		})

		store, err := kb.NewPinecone(embedder,
			kb.WithAPIKey(settings.PineconeKey),
			kb.WithHost(settings.PineconeHost),
			kb.WithNamespace(settings.PineconeNamespace),
			kb.WithTimeout(settings.StageTimeout),
			kb.WithLogger(log.L()),
		)
		if err == nil {
			log.Info("retrieval mode: semantic", "namespace", settings.PineconeNamespace)
			return store
		}
		log.Warn("pinecone init failed, falling back to keyword search", "error", err)
	}

	store, err := kb.LoadDir(settings.KBDir)
	if err != nil {
		log.Warn("knowledge base load failed", "dir", settings.KBDir, "error", err)
		store = kb.NewKeyword(nil)
	}
	log.Info("retrieval mode: keyword", "dir", settings.KBDir, "documents", store.Len())
	return store
}

// buildComposer binds the reply composer: hosted model when configured,
// deterministic template otherwise.
func buildComposer(settings *config.Settings, llm inference.Provider) answer.Composer {
	if llm != nil {
		composer, err := answer.NewLLM(llm, answer.WithLogger(log.L()))
		if err == nil {
			return composer
		}
		log.Warn("llm composer init failed, using template", "error", err)
	}
	return answer.NewTemplate()
}

// buildTranscriber binds STT, or nil when unconfigured. There is no
// fallback transcription; voice submissions are rejected until a key is
// provided, while text submissions keep working.
func buildTranscriber(settings *config.Settings) stt.Provider {
	if !settings.SpeechConfigured() {
		log.Warn("speech-to-text not configured; voice submissions disabled")
		return nil
	}
	provider, err := stt.NewElevenLabs(
		stt.WithAPIKey(settings.ElevenLabsKey),
		stt.WithTimeout(settings.StageTimeout),
		stt.WithLogger(log.L()),
	)
	if err != nil {
		log.Warn("stt init failed; voice submissions disabled", "error", err)
		return nil
	}
	return provider
}

// buildSynthesizer binds exactly one TTS backend: the hosted voice when a
// key is present, otherwise the tone generator. A hosted-call failure
// fails the job rather than silently swapping voices mid-flight.
func buildSynthesizer(settings *config.Settings) tts.Provider {
	tone := tts.NewTone()

	if !settings.SpeechConfigured() {
		log.Warn("text-to-speech not configured; using tone fallback")
		return tone
	}

	eleven, err := tts.NewElevenLabs(
		tts.WithAPIKey(settings.ElevenLabsKey),
		tts.WithVoice(settings.ElevenLabsVoiceID),
		tts.WithTimeout(settings.StageTimeout),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		log.Warn("tts init failed; using tone fallback", "error", err)
		return tone
	}
	return eleven
}
