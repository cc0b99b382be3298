// Package mcp provides an MCP (Model Context Protocol) server exposing the
// uploaded document corpus to external agents.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/studai/pkg/rag"
	"github.com/papercomputeco/studai/pkg/utils"
)

// Searcher retrieves grouped context for a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) (rag.GroupedContext, error)
}

type Config struct {
	// Searcher runs the retrieval, usually a *rag.Service
	Searcher Searcher

	// DefaultTopK is used when the caller does not pass top_k (defaults to 5)
	DefaultTopK int

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the search_corpus tool.
func NewServer(c Config) (*Server, error) {
	if c.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = defaultTopK
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "studai",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        rag.SearchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
