package rag_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studai/pkg/eventstream"
	"github.com/papercomputeco/studai/pkg/llm"
	"github.com/papercomputeco/studai/pkg/logger"
	"github.com/papercomputeco/studai/pkg/rag"
	"github.com/papercomputeco/studai/pkg/render"
	testutils "github.com/papercomputeco/studai/pkg/utils/test"
	"github.com/papercomputeco/studai/pkg/vector"
)

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		embedder  *testutils.MockEmbedder
		store     *testutils.MockVectorDriver
		chat      *testutils.MockChatModel
		publisher *testutils.MockPublisher
		cfg       rag.Config
		tmp       string
	)

	newService := func() *rag.Service {
		svc, err := rag.NewService(cfg)
		Expect(err).NotTo(HaveOccurred())
		return svc
	}

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		store = testutils.NewMockVectorDriver()
		chat = testutils.NewMockChatModel()
		publisher = testutils.NewMockPublisher()
		tmp = GinkgoT().TempDir()

		cfg = rag.Config{
			Embedder:    embedder,
			VectorStore: store,
			Chat:        chat,
			Renderer:    render.New(filepath.Join(tmp, "generated")),
			Publisher:   publisher,
			Logger:      logger.Nop(),
			UploadsDir:  filepath.Join(tmp, "uploads"),
		}
	})

	Describe("NewService", func() {
		It("requires its collaborators", func() {
			_, err := rag.NewService(rag.Config{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown tool policy", func() {
			cfg.ToolPolicy = "sometimes"
			_, err := rag.NewService(cfg)
			Expect(err).To(MatchError(ContainSubstring("tool policy")))
		})

		It("rejects an unknown default mode", func() {
			cfg.DefaultMode = "psychic"
			_, err := rag.NewService(cfg)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Ingest", func() {
		It("stores one chunk per non-blank page and records the file", func() {
			svc := newService()
			raw := testutils.BuildPDF("Alpha page", "", "Gamma page")

			res, err := svc.Ingest(ctx, "notes.pdf", raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal("ok"))
			Expect(res.Filename).To(Equal("notes.pdf"))
			Expect(res.ChunksAdded).To(Equal(2))

			added := store.Added()
			Expect(added).To(HaveLen(2))
			Expect(added[0].Page).To(Equal(1))
			Expect(added[0].Filename).To(Equal("notes.pdf"))
			Expect(added[0].ID).To(Equal(vector.ChunkID("notes.pdf", 1)))
			Expect(added[0].Content).To(ContainSubstring("Alpha"))
			Expect(added[1].Page).To(Equal(3))

			Expect(svc.Files()).To(Equal([]string{"notes.pdf"}))
		})

		It("persists the raw upload under its base name", func() {
			svc := newService()
			raw := testutils.BuildPDF("Saved")

			_, err := svc.Ingest(ctx, "../../escape/saved.pdf", raw)
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(filepath.Join(cfg.UploadsDir, "saved.pdf"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(raw))
			Expect(svc.Files()).To(Equal([]string{"saved.pdf"}))
		})

		It("records files that yield no chunks", func() {
			svc := newService()
			res, err := svc.Ingest(ctx, "blank.pdf", testutils.BuildPDF(""))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ChunksAdded).To(Equal(0))
			Expect(svc.Files()).To(ContainElement("blank.pdf"))
		})

		It("re-ingesting a file reuses chunk ids", func() {
			svc := newService()
			raw := testutils.BuildPDF("Same page")
			_, err := svc.Ingest(ctx, "dup.pdf", raw)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Ingest(ctx, "dup.pdf", raw)
			Expect(err).NotTo(HaveOccurred())

			added := store.Added()
			Expect(added).To(HaveLen(2))
			Expect(added[0].ID).To(Equal(added[1].ID))
			Expect(svc.Files()).To(HaveLen(1))
		})

		It("rejects invalid documents but keeps the raw bytes", func() {
			svc := newService()
			_, err := svc.Ingest(ctx, "broken.pdf", []byte("not a pdf"))
			Expect(err).To(MatchError(rag.ErrInvalidDocument))

			Expect(filepath.Join(cfg.UploadsDir, "broken.pdf")).To(BeAnExistingFile())
			Expect(svc.Files()).To(BeEmpty())
			Expect(store.Added()).To(BeEmpty())
		})

		It("rejects an empty filename", func() {
			svc := newService()
			_, err := svc.Ingest(ctx, "  ", testutils.BuildPDF("x"))
			Expect(err).To(MatchError(rag.ErrInvalidDocument))
		})

		It("wraps embedding failures", func() {
			embedder.FailAll = true
			svc := newService()
			_, err := svc.Ingest(ctx, "a.pdf", testutils.BuildPDF("text"))
			Expect(err).To(MatchError(rag.ErrEmbeddingFailure))
			Expect(svc.Files()).To(BeEmpty())
		})

		It("wraps store failures and keeps earlier chunks", func() {
			store.FailAddAfter = 1
			svc := newService()
			_, err := svc.Ingest(ctx, "a.pdf", testutils.BuildPDF("one", "two", "three"))
			Expect(err).To(MatchError(rag.ErrStoreFailure))
			Expect(store.Added()).To(HaveLen(1))
			Expect(svc.Files()).To(Equal([]string{"a.pdf"}))
		})

		It("ignores upload persistence failures", func() {
			blocker := filepath.Join(tmp, "blocker")
			Expect(os.WriteFile(blocker, []byte("file"), 0o600)).To(Succeed())
			cfg.UploadsDir = filepath.Join(blocker, "uploads")

			svc := newService()
			res, err := svc.Ingest(ctx, "a.pdf", testutils.BuildPDF("text"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ChunksAdded).To(Equal(1))
		})

		It("publishes a document event", func() {
			svc := newService()
			_, err := svc.Ingest(ctx, "a.pdf", testutils.BuildPDF("one", "two"))
			Expect(err).NotTo(HaveOccurred())

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeDocumentIngested))
			Expect(events[0].Document.Filename).To(Equal("a.pdf"))
			Expect(events[0].Document.ChunksAdded).To(Equal(2))
			Expect(events[0].Document.Pages).To(Equal(2))
		})
	})

	Describe("Answer", func() {
		BeforeEach(func() {
			store.Results = []vector.QueryResult{
				result("bio.pdf", 4, "Osmosis moves water.", 0.9),
				result("chem.pdf", 1, "Solutions and solvents.", 0.8),
				result("bio.pdf", 2, "Cells have membranes.", 0.7),
			}
			chat.DefaultText = "Water crosses membranes."
		})

		It("rejects an empty prompt before any provider call", func() {
			svc := newService()
			_, err := svc.Answer(ctx, rag.AskRequest{Question: "   \n"})
			Expect(err).To(MatchError(rag.ErrEmptyPrompt))
			Expect(embedder.Calls()).To(BeEmpty())
			Expect(store.Queries()).To(Equal(0))
			Expect(chat.Requests()).To(BeEmpty())
		})

		It("rejects an unknown mode before any provider call", func() {
			svc := newService()
			_, err := svc.Answer(ctx, rag.AskRequest{Question: "q", Mode: rag.Mode("psychic")})
			Expect(err).To(MatchError(rag.ErrInvalidMode))
			Expect(embedder.Calls()).To(BeEmpty())
			Expect(chat.Requests()).To(BeEmpty())
		})

		It("answers in plain mode from grouped context", func() {
			svc := newService()
			answer, err := svc.Answer(ctx, rag.AskRequest{Question: " What is osmosis? "})
			Expect(err).NotTo(HaveOccurred())

			Expect(answer.Text).To(Equal("Water crosses membranes."))
			Expect(answer.Mode).To(Equal(rag.ModePlain))
			Expect(answer.Retrieved).To(BeTrue())
			Expect(answer.SearchQuery).To(Equal("What is osmosis?"))
			Expect(answer.Grouped.Files()).To(Equal([]string{"bio.pdf", "chem.pdf"}))
			Expect(answer.ArtifactPath).To(BeEmpty())

			Expect(embedder.Calls()).To(Equal([]string{"What is osmosis?"}))
			Expect(store.LastTopK()).To(Equal(5))

			reqs := chat.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Tools).To(BeEmpty())
			Expect(reqs[0].Messages[0].Role).To(Equal(llm.RoleSystem))
			Expect(reqs[0].Messages[0].GetText()).To(ContainSubstring("Only answer using the provided context"))
			user := reqs[0].Messages[1].GetText()
			Expect(user).To(HavePrefix("Context:\n=== bio.pdf ===\n[Page 2]\nCells have membranes."))
			Expect(user).To(HaveSuffix("\n\nQuestion: What is osmosis?"))
		})

		It("still asks the model when nothing was retrieved", func() {
			store.Results = nil
			svc := newService()
			answer, err := svc.Answer(ctx, rag.AskRequest{Question: "Anything?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Context).To(BeEmpty())
			Expect(answer.Grouped).To(BeEmpty())
			Expect(chat.Requests()[0].Messages[1].GetText()).To(Equal("Context:\n\n\nQuestion: Anything?"))
		})

		It("honors the configured top k", func() {
			cfg.PlainTopK = 2
			svc := newService()
			_, err := svc.Answer(ctx, rag.AskRequest{Question: "q"})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.LastTopK()).To(Equal(2))
		})

		It("searches with the model chosen query in agentic mode", func() {
			chat.Responses = []*llm.ChatResponse{
				testutils.ToolCallResponse(rag.SearchToolName, `{"query":"osmosis definition"}`),
			}
			svc := newService()

			answer, err := svc.Answer(ctx, rag.AskRequest{Question: "Explain osmosis", Mode: rag.ModeAgentic})
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Mode).To(Equal(rag.ModeAgentic))
			Expect(answer.SearchQuery).To(Equal("osmosis definition"))
			Expect(embedder.Calls()).To(Equal([]string{"osmosis definition"}))
			Expect(store.LastTopK()).To(Equal(30))

			reqs := chat.Requests()
			Expect(reqs).To(HaveLen(2))
			Expect(reqs[0].Tools).To(HaveLen(1))
			Expect(reqs[0].Tools[0].Name).To(Equal(rag.SearchToolName))
			Expect(reqs[1].Tools).To(BeEmpty())
			Expect(reqs[1].Messages[1].GetText()).To(HaveSuffix("Question: Explain osmosis"))
		})

		It("uses the configured default mode", func() {
			cfg.DefaultMode = rag.ModeAgentic
			chat.Responses = []*llm.ChatResponse{
				testutils.ToolCallResponse(rag.SearchToolName, `{"query":"x"}`),
			}
			svc := newService()
			answer, err := svc.Answer(ctx, rag.AskRequest{Question: "q"})
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Mode).To(Equal(rag.ModeAgentic))
		})

		It("falls back to the question when tool arguments are invalid", func() {
			chat.Responses = []*llm.ChatResponse{
				testutils.ToolCallResponse(rag.SearchToolName, `{"query":"x","drop":"tables"}`),
			}
			svc := newService()
			answer, err := svc.Answer(ctx, rag.AskRequest{Question: "Original question", Mode: rag.ModeAgentic})
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.SearchQuery).To(Equal("Original question"))
			Expect(embedder.Calls()).To(Equal([]string{"Original question"}))
		})

		It("ignores calls to other tools", func() {
			cfg.ToolPolicy = rag.ToolPolicyRequire
			chat.Responses = []*llm.ChatResponse{
				testutils.ToolCallResponse("delete_everything", `{}`),
			}
			svc := newService()
			_, err := svc.Answer(ctx, rag.AskRequest{Question: "q", Mode: rag.ModeAgentic})
			Expect(err).To(MatchError(rag.ErrToolCallRequired))
		})

		It("fails when the tool is required and not called", func() {
			cfg.ToolPolicy = rag.ToolPolicyRequire
			chat.Responses = []*llm.ChatResponse{testutils.TextResponse("I know this already")}
			svc := newService()

			_, err := svc.Answer(ctx, rag.AskRequest{Question: "q", Mode: rag.ModeAgentic})
			Expect(err).To(MatchError(rag.ErrToolCallRequired))
			Expect(store.Queries()).To(Equal(0))
		})

		It("returns the direct reply under the fallback policy", func() {
			chat.Responses = []*llm.ChatResponse{testutils.TextResponse("Direct reply")}
			svc := newService()

			answer, err := svc.Answer(ctx, rag.AskRequest{Question: "q", Mode: rag.ModeAgentic, Render: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Text).To(Equal("Direct reply"))
			Expect(answer.Retrieved).To(BeFalse())
			Expect(answer.Context).To(BeEmpty())
			Expect(answer.Grouped).To(BeNil())
			Expect(answer.ArtifactPath).To(BeAnExistingFile())
			Expect(store.Queries()).To(Equal(0))
			Expect(chat.Requests()).To(HaveLen(1))
		})

		It("wraps upstream failures", func() {
			chat.Err = testutils.ErrMockUpstream
			svc := newService()
			_, err := svc.Answer(ctx, rag.AskRequest{Question: "q"})
			Expect(err).To(MatchError(rag.ErrUpstreamFailure))

			_, err = svc.Answer(ctx, rag.AskRequest{Question: "q", Mode: rag.ModeAgentic})
			Expect(err).To(MatchError(rag.ErrUpstreamFailure))
		})

		It("wraps embedding and store failures", func() {
			embedder.FailAll = true
			svc := newService()
			_, err := svc.Answer(ctx, rag.AskRequest{Question: "q"})
			Expect(err).To(MatchError(rag.ErrEmbeddingFailure))

			embedder.FailAll = false
			store.FailQuery = true
			_, err = svc.Answer(ctx, rag.AskRequest{Question: "q"})
			Expect(err).To(MatchError(rag.ErrStoreFailure))
			Expect(chat.Requests()).To(BeEmpty())
		})

		It("renders a pdf artifact when requested", func() {
			svc := newService()
			answer, err := svc.Answer(ctx, rag.AskRequest{Question: "q", Render: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.ArtifactPath).To(BeAnExistingFile())
			Expect(filepath.Dir(answer.ArtifactPath)).To(Equal(filepath.Join(tmp, "generated")))
			Expect(answer.Sources).To(HaveLen(3))
		})

		It("wraps render failures", func() {
			blocker := filepath.Join(tmp, "blocker")
			Expect(os.WriteFile(blocker, []byte("file"), 0o600)).To(Succeed())
			cfg.Renderer = render.New(filepath.Join(blocker, "out"))

			svc := newService()
			_, err := svc.Answer(ctx, rag.AskRequest{Question: "q", Render: true})
			Expect(err).To(MatchError(rag.ErrRenderFailure))
		})

		It("publishes an answer event without document text", func() {
			svc := newService()
			_, err := svc.Answer(ctx, rag.AskRequest{Question: "q", Render: true})
			Expect(err).NotTo(HaveOccurred())

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeAnswerGenerated))
			Expect(events[0].Answer.Files).To(Equal([]string{"bio.pdf", "chem.pdf"}))
			Expect(events[0].Answer.Artifact).To(HaveSuffix(".pdf"))
		})
	})

	Describe("Search", func() {
		It("groups retrieval results for the query", func() {
			store.Results = []vector.QueryResult{result("a.pdf", 1, "one", 0.9)}
			svc := newService()
			grouped, err := svc.Search(ctx, "one", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(grouped.Files()).To(Equal([]string{"a.pdf"}))
			Expect(store.LastTopK()).To(Equal(3))
		})
	})
})
