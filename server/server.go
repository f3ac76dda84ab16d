// Package server serves the image upload form, a JSON API for completions and
// recorded images, and the same operations as MCP tools.
package server

import (
	"context"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/completion"
	"github.com/papercomputeco/lookbook/pkg/llm"
	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/upload"
)

const defaultBodyLimit = 32 << 20

// Generator produces chat completions.
type Generator interface {
	Generate(ctx context.Context, req completion.Request) (*llm.ChatResponse, error)
}

// Runner uploads and records a batch of files.
type Runner interface {
	Run(ctx context.Context, files []upload.File) []upload.Result
}

// Server is the lookbook web server.
type Server struct {
	config    Config
	generator Generator
	runner    Runner
	storer    metadata.Storer
	logger    *zap.Logger
	server    *fiber.App
}

// New creates a new Server.
func New(config Config, generator Generator, runner Runner, storer metadata.Storer, logger *zap.Logger) (*Server, error) {
	if config.BodyLimit == 0 {
		config.BodyLimit = defaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
	})

	s := &Server{
		config:    config,
		generator: generator,
		runner:    runner,
		storer:    storer,
		logger:    logger,
		server:    app,
	}

	// Upload form
	app.Get("/", s.handleForm)
	app.Post("/upload", s.handleUploadForm)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	// JSON API
	api := app.Group("/api")
	api.Post("/generate", s.handleGenerate)
	api.Post("/upload", s.handleUploadAPI)
	api.Get("/images", s.handleListImages)
	api.Get("/images/:id", s.handleGetImage)

	// MCP tools over streamable HTTP
	app.All("/mcp", adaptor.HTTPHandler(s.mcpHandler()))

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting lookbook server", zap.String("listen", s.config.ListenAddr))
	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting lookbook server", zap.String("listen", ln.Addr().String()))
	return s.server.Listener(ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.server
}
