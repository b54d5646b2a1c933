// Package web exposes the gateway's HTTP surface: job submission, status
// and audio retrieval, and a websocket stream of live status events.
package web

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/xccelera/voicegate/internal/events"
	"github.com/xccelera/voicegate/internal/jobs"
	"github.com/xccelera/voicegate/internal/outputs"
	"github.com/xccelera/voicegate/internal/pipeline"
)

// Config wires the server's collaborators.
type Config struct {
	AppName        string
	AllowedOrigins []string
	MaxUploadBytes int64

	Runner  *pipeline.Runner
	Jobs    jobs.Store
	Outputs *outputs.Store
	Events  *events.Publisher

	Logger *slog.Logger
}

// Server is the gateway HTTP server.
type Server struct {
	app       *fiber.App
	cfg       Config
	logger    *slog.Logger
	maxUpload int64
}

// NewServer builds the fiber app and its routes.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}

	s := &Server{
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "web"),
		maxUpload: cfg.MaxUploadBytes,
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		// Slack above the documented upload cap so the handler can
		// return its own 413 with a JSON body.
		BodyLimit: int(cfg.MaxUploadBytes) + 1<<20,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
	}))

	app.Get("/health", s.handleHealth)

	agent := app.Group("/agent")
	agent.Post("/voice", s.handleVoice)
	agent.Post("/text", s.handleText)

	app.Get("/jobs/:id", s.handleJob)
	app.Get("/jobs/:id/audio", s.handleAudio)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs/:id", websocket.New(s.handleJobStream))

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
