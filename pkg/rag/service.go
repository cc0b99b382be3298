// Package rag implements document ingestion and retrieval-augmented question
// answering over uploaded PDFs.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/studai/pkg/embeddings"
	"github.com/papercomputeco/studai/pkg/eventstream"
	"github.com/papercomputeco/studai/pkg/eventstream/nop"
	"github.com/papercomputeco/studai/pkg/llm"
	"github.com/papercomputeco/studai/pkg/pdftext"
	"github.com/papercomputeco/studai/pkg/render"
	"github.com/papercomputeco/studai/pkg/vector"
)

// Mode selects how a question is turned into a search query.
type Mode string

const (
	// ModePlain searches with the question itself.
	ModePlain Mode = "plain"

	// ModeAgentic lets the model choose the search query through a tool call.
	ModeAgentic Mode = "agentic"
)

// ParseMode validates a mode name. The empty string yields "" so callers can
// fall back to a default.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePlain, ModeAgentic:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w %q (expected %s or %s)", ErrInvalidMode, s, ModePlain, ModeAgentic)
	}
}

// ToolPolicy decides what happens when the model answers without searching.
type ToolPolicy string

const (
	// ToolPolicyRequire fails the request with ErrToolCallRequired.
	ToolPolicyRequire ToolPolicy = "require"

	// ToolPolicyFallback returns the model's direct reply.
	ToolPolicyFallback ToolPolicy = "fallback"
)

const (
	defaultPlainTopK   = 5
	defaultAgenticTopK = 30

	ingestStatusOK = "ok"
)

// Config wires a Service to its collaborators.
type Config struct {
	Embedder    embeddings.Embedder
	VectorStore vector.Driver
	Chat        llm.ChatModel

	// Renderer produces PDF artifacts. Required only when answers are rendered.
	Renderer *render.Renderer

	// Registry defaults to an empty registry.
	Registry *Registry

	// Publisher defaults to a nop publisher.
	Publisher eventstream.Publisher

	Logger *slog.Logger

	// UploadsDir receives the raw uploaded files. Empty disables persistence.
	UploadsDir string

	DefaultMode Mode
	ToolPolicy  ToolPolicy
	PlainTopK   int
	AgenticTopK int
}

// Service orchestrates ingestion and question answering.
type Service struct {
	embedder  embeddings.Embedder
	store     vector.Driver
	chat      llm.ChatModel
	renderer  *render.Renderer
	registry  *Registry
	publisher eventstream.Publisher
	logger    *slog.Logger

	uploadsDir  string
	defaultMode Mode
	toolPolicy  ToolPolicy
	plainTopK   int
	agenticTopK int
}

// NewService validates c and builds a Service.
func NewService(c Config) (*Service, error) {
	if c.Embedder == nil {
		return nil, errors.New("rag service requires an embedder")
	}
	if c.VectorStore == nil {
		return nil, errors.New("rag service requires a vector store")
	}
	if c.Chat == nil {
		return nil, errors.New("rag service requires a chat model")
	}
	if c.Logger == nil {
		return nil, errors.New("rag service requires a logger")
	}

	s := &Service{
		embedder:    c.Embedder,
		store:       c.VectorStore,
		chat:        c.Chat,
		renderer:    c.Renderer,
		registry:    c.Registry,
		publisher:   c.Publisher,
		logger:      c.Logger,
		uploadsDir:  c.UploadsDir,
		defaultMode: c.DefaultMode,
		toolPolicy:  c.ToolPolicy,
		plainTopK:   c.PlainTopK,
		agenticTopK: c.AgenticTopK,
	}

	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.publisher == nil {
		s.publisher = nop.NewPublisher()
	}

	switch s.defaultMode {
	case "":
		s.defaultMode = ModePlain
	case ModePlain, ModeAgentic:
	default:
		return nil, fmt.Errorf("invalid default mode %q", s.defaultMode)
	}

	switch s.toolPolicy {
	case "":
		s.toolPolicy = ToolPolicyFallback
	case ToolPolicyRequire, ToolPolicyFallback:
	default:
		return nil, fmt.Errorf("invalid tool policy %q", s.toolPolicy)
	}

	if s.plainTopK <= 0 {
		s.plainTopK = defaultPlainTopK
	}
	if s.agenticTopK <= 0 {
		s.agenticTopK = defaultAgenticTopK
	}

	return s, nil
}

// Files returns the filenames uploaded through this service, sorted.
func (s *Service) Files() []string {
	return s.registry.List()
}

// IngestResult summarizes a successful upload.
type IngestResult struct {
	Status      string `json:"status"`
	Filename    string `json:"filename"`
	ChunksAdded int    `json:"chunks_added"`
}

// Ingest persists, extracts, embeds and stores every non-blank page of a PDF.
// Pages stored before a failure stay in the store, and the file is listed as
// soon as its first page is stored.
func (s *Service) Ingest(ctx context.Context, filename string, raw []byte) (*IngestResult, error) {
	name := filepath.Base(filepath.Clean(strings.TrimSpace(filename)))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidDocument)
	}

	s.persistUpload(name, raw)

	pages, err := pdftext.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	added := 0
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		embedding, err := s.embedder.Embed(ctx, page.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %v", ErrEmbeddingFailure, name, page.Number, err)
		}

		doc := vector.Document{
			ID:        vector.ChunkID(name, page.Number),
			Content:   page.Text,
			Filename:  name,
			Page:      page.Number,
			Embedding: embedding,
		}
		if err := s.store.Add(ctx, []vector.Document{doc}); err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %v", ErrStoreFailure, name, page.Number, err)
		}
		if added == 0 {
			s.registry.Add(name)
		}
		added++
	}

	s.registry.Add(name)

	s.logger.Info("document ingested",
		"filename", name,
		"pages", len(pages),
		"chunks_added", added,
	)

	s.publish(ctx, eventstream.NewDocumentIngested(eventstream.DocumentPayload{
		Filename:    name,
		ChunksAdded: added,
		Pages:       len(pages),
	}))

	return &IngestResult{Status: ingestStatusOK, Filename: name, ChunksAdded: added}, nil
}

func (s *Service) persistUpload(name string, raw []byte) {
	if s.uploadsDir == "" {
		return
	}
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		s.logger.Warn("could not create uploads dir", "dir", s.uploadsDir, "error", err)
		return
	}
	path := filepath.Join(s.uploadsDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		s.logger.Warn("could not persist upload", "path", path, "error", err)
	}
}

// AskRequest is a question to answer.
type AskRequest struct {
	Question string

	// Mode overrides the service default when set.
	Mode Mode

	// Render produces a PDF artifact of the answer.
	Render bool
}

// Answer is the outcome of a question.
type Answer struct {
	Question string
	Text     string
	Mode     Mode
	Model    string

	// Retrieved is false when the model answered without a search, in which
	// case SearchQuery, Context, Grouped and Sources are empty.
	Retrieved   bool
	SearchQuery string
	Context     string
	Grouped     GroupedContext
	Sources     []render.Source

	// ArtifactPath is set when the answer was rendered.
	ArtifactPath string
}

// Answer retrieves context for the question and asks the chat model to
// answer from it.
func (s *Service) Answer(ctx context.Context, req AskRequest) (*Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyPrompt
	}

	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = s.defaultMode
	}

	answer := &Answer{Question: question, Mode: mode}

	query := question
	topK := s.plainTopK
	if mode == ModeAgentic {
		topK = s.agenticTopK

		chosen, direct, err := s.decide(ctx, question)
		if err != nil {
			return nil, err
		}
		if direct != nil {
			answer.Text = direct.Message.GetText()
			answer.Model = direct.Model
			return s.finish(ctx, answer, req.Render)
		}
		query = chosen
	}

	grouped, err := s.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	answer.Retrieved = true
	answer.SearchQuery = query
	answer.Grouped = grouped
	answer.Context = grouped.Format()
	answer.Sources = grouped.Sources()

	resp, err := s.chat.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, answerSystemPrompt),
			llm.NewTextMessage(llm.RoleUser, answerUserPrompt(answer.Context, question)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	answer.Text = resp.Message.GetText()
	answer.Model = resp.Model

	return s.finish(ctx, answer, req.Render)
}

// decide asks the model for a search query. It returns either the query to
// search with or, under the fallback policy, the model's direct reply.
func (s *Service) decide(ctx context.Context, question string) (string, *llm.ChatResponse, error) {
	resp, err := s.chat.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, searchSystemPrompt),
			llm.NewTextMessage(llm.RoleUser, question),
		},
		Tools: []llm.Tool{SearchTool()},
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	query, called, err := searchQueryFrom(resp.Message)
	switch {
	case !called:
		if s.toolPolicy == ToolPolicyRequire {
			return "", nil, ErrToolCallRequired
		}
		s.logger.Info("model answered without searching", "model", resp.Model)
		return "", resp, nil
	case err != nil:
		s.logger.Warn("invalid search tool arguments, searching with the question", "error", err)
		return question, nil, nil
	default:
		return query, nil, nil
	}
}

// Search embeds query and returns the topK nearest pages grouped by file.
func (s *Service) Search(ctx context.Context, query string, topK int) (GroupedContext, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}

	results, err := s.store.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	s.logger.Debug("retrieved context",
		"top_k", topK,
		"results", len(results),
	)

	return Group(results), nil
}

func (s *Service) finish(ctx context.Context, answer *Answer, renderPDF bool) (*Answer, error) {
	if renderPDF {
		if s.renderer == nil {
			return nil, fmt.Errorf("%w: no renderer configured", ErrRenderFailure)
		}
		path, err := s.renderer.Render(render.Document{
			Question: answer.Question,
			Answer:   answer.Text,
			Sources:  answer.Sources,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
		}
		answer.ArtifactPath = path
	}

	s.logger.Info("question answered",
		"mode", answer.Mode,
		"retrieved", answer.Retrieved,
		"files", len(answer.Grouped),
		"rendered", answer.ArtifactPath != "",
	)

	payload := eventstream.AnswerPayload{
		Mode:        string(answer.Mode),
		SearchQuery: answer.SearchQuery,
		Files:       answer.Grouped.Files(),
	}
	if answer.ArtifactPath != "" {
		payload.Artifact = filepath.Base(answer.ArtifactPath)
	}
	s.publish(ctx, eventstream.NewAnswerGenerated(payload))

	return answer, nil
}

func (s *Service) publish(ctx context.Context, event *eventstream.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event not published",
			"event_type", event.EventType,
			"error", err,
		)
	}
}
