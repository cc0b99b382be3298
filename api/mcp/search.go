package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/studai/pkg/rag"
)

const (
	defaultTopK = 5
	maxTopK     = 50

	searchDescription = "Search the uploaded PDF documents using semantic search. Returns the most relevant pages grouped by file and page number."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text to find relevant pages"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of pages to retrieve (default: 5, max: 50)"`
}

// Page is one retrieved page.
type Page struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// File groups the retrieved pages of one document.
type File struct {
	Filename string `json:"filename"`
	Pages    []Page `json:"pages"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query string `json:"query"`
	Files []File `json:"files"`
	Count int    `json:"count"`
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return errorResult("query is required"), emptyOutput(query), nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = s.config.DefaultTopK
	}
	topK = min(topK, maxTopK)

	logger.Debug("MCP search request",
		"query", query,
		"top_k", topK,
	)

	grouped, err := s.config.Searcher.Search(ctx, query, topK)
	if err != nil {
		logger.Error("MCP search failed", "error", err)
		return errorResult("Failed to search documents: %v", err), emptyOutput(query), nil
	}

	output := buildSearchOutput(query, grouped)

	// Structured output is mirrored as serialized JSON text for clients that
	// only read content blocks.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return errorResult("Failed to serialize results: %v", err), emptyOutput(query), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func emptyOutput(query string) SearchOutput {
	return SearchOutput{Query: query, Files: []File{}}
}

func buildSearchOutput(query string, grouped rag.GroupedContext) SearchOutput {
	files := make([]File, 0, len(grouped))
	count := 0
	for _, g := range grouped {
		pages := make([]Page, 0, len(g.Pages))
		for _, p := range g.Pages {
			pages = append(pages, Page{Page: p.Page, Text: p.Text})
		}
		count += len(pages)
		files = append(files, File{Filename: g.Filename, Pages: pages})
	}

	return SearchOutput{
		Query: query,
		Files: files,
		Count: count,
	}
}
