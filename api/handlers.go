package api

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/studai/pkg/rag"
)

const (
	formatJSON = "json"
	formatPDF  = "pdf"
)

// AskRequest is the JSON body of POST /ask.
type AskRequest struct {
	Prompt *string `json:"prompt"`
	Mode   string  `json:"mode,omitempty"`
}

// AskResponse is the JSON answer of POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`

	// Context is the prompt block sent to the model, null when the model
	// answered without retrieval.
	Context     *string             `json:"context"`
	Grouped     *rag.GroupedContext `json:"grouped,omitempty"`
	SearchQuery string              `json:"search_query,omitempty"`
	Mode        string              `json:"mode"`
}

// PDFsResponse lists the uploaded filenames.
type PDFsResponse struct {
	PDFs []string `json:"pdfs"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleUpload ingests the multipart "file" field.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	result, err := s.service.Ingest(c.Context(), header.Filename, raw)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(result)
}

// handleAsk answers a question as JSON or as a PDF attachment.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	mode, err := rag.ParseMode(req.Mode)
	if err != nil {
		return badRequest(c, "invalid mode")
	}

	renderPDF := s.config.RenderPDF
	switch c.Query("format") {
	case "":
	case formatJSON:
		renderPDF = false
	case formatPDF:
		renderPDF = true
	default:
		return badRequest(c, "invalid format")
	}

	question := ""
	if req.Prompt != nil {
		question = *req.Prompt
	}

	answer, err := s.service.Answer(c.Context(), rag.AskRequest{
		Question: question,
		Mode:     mode,
		Render:   renderPDF,
	})
	if err != nil {
		return s.fail(c, err)
	}

	if renderPDF {
		return s.sendArtifact(c, answer.ArtifactPath)
	}

	resp := AskResponse{
		Answer:      answer.Text,
		SearchQuery: answer.SearchQuery,
		Mode:        string(answer.Mode),
	}
	if answer.Retrieved {
		resp.Context = &answer.Context
		resp.Grouped = &answer.Grouped
	}

	return c.JSON(resp)
}

func (s *Server) sendArtifact(c *fiber.Ctx, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return s.fail(c, fmt.Errorf("%w: reading artifact: %v", rag.ErrRenderFailure, err))
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(path)))
	return c.Send(data)
}

// handlePDFs lists the filenames uploaded to this process.
func (s *Server) handlePDFs(c *fiber.Ctx) error {
	return c.JSON(PDFsResponse{PDFs: s.service.Files()})
}
