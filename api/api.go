package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	apimcp "github.com/papercomputeco/studai/api/mcp"
	"github.com/papercomputeco/studai/pkg/rag"
)

const defaultBodyLimitMB = 50

// Server is the API server for the studai system
type Server struct {
	config  Config
	service *rag.Service
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server backed by the given service.
func NewServer(config Config, service *rag.Service, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, errors.New("rag service is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.BodyLimitMB <= 0 {
		config.BodyLimitMB = defaultBodyLimitMB
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimitMB * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS",
		ExposeHeaders: fiber.HeaderContentDisposition,
	}))

	s := &Server{
		config:  config,
		service: service,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/upload", s.handleUpload)
	app.Post("/ask", s.handleAsk)
	app.Get("/pdfs", s.handlePDFs)

	if config.MCP {
		mcpServer, err := apimcp.NewServer(apimcp.Config{
			Searcher: service,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating MCP server: %w", err)
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.MCP,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
