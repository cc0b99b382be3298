package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studai/api/mcp"
	studailogger "github.com/papercomputeco/studai/pkg/logger"
	"github.com/papercomputeco/studai/pkg/rag"
	"github.com/papercomputeco/studai/pkg/vector"
)

type fakeSearcher struct {
	mu       sync.Mutex
	results  []vector.QueryResult
	err      error
	lastTopK int
	lastQ    string
}

func (f *fakeSearcher) Search(_ context.Context, query string, topK int) (rag.GroupedContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQ = query
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return rag.Group(f.results), nil
}

func (f *fakeSearcher) last() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQ, f.lastTopK
}

var _ = Describe("MCP Server", func() {
	var (
		server   *mcp.Server
		searcher *fakeSearcher
	)

	BeforeEach(func() {
		searcher = &fakeSearcher{
			results: []vector.QueryResult{
				{Document: vector.Document{Filename: "bio.pdf", Page: 2, Content: "Cells"}},
				{Document: vector.Document{Filename: "bio.pdf", Page: 1, Content: "Intro"}},
			},
		}

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Searcher: searcher,
			Logger:   studailogger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when searcher is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: studailogger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("searcher is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Searcher: searcher})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("search_corpus over streamable HTTP", func() {
		var (
			ctx     context.Context
			session *sdkmcp.ClientSession
		)

		BeforeEach(func() {
			ctx = context.Background()
			httpServer := httptest.NewServer(server.Handler())
			DeferCleanup(httpServer.Close)

			client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
			var err error
			session, err = client.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: httpServer.URL}, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(session.Close)
		})

		It("lists the tool", func() {
			tools, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tools.Tools).To(HaveLen(1))
			Expect(tools.Tools[0].Name).To(Equal(rag.SearchToolName))
		})

		It("returns grouped pages", func() {
			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      rag.SearchToolName,
				Arguments: map[string]any{"query": "  cells  "},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			q, topK := searcher.last()
			Expect(q).To(Equal("cells"))
			Expect(topK).To(Equal(5))

			text, ok := res.Content[0].(*sdkmcp.TextContent)
			Expect(ok).To(BeTrue())

			var out mcp.SearchOutput
			Expect(json.Unmarshal([]byte(text.Text), &out)).To(Succeed())
			Expect(out.Count).To(Equal(2))
			Expect(out.Files).To(HaveLen(1))
			Expect(out.Files[0].Pages[0].Page).To(Equal(1))
		})

		It("caps top_k", func() {
			_, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      rag.SearchToolName,
				Arguments: map[string]any{"query": "cells", "top_k": 500},
			})
			Expect(err).NotTo(HaveOccurred())
			_, topK := searcher.last()
			Expect(topK).To(Equal(50))
		})

		It("reports search failures as tool errors", func() {
			searcher.mu.Lock()
			searcher.err = errors.New("store offline")
			searcher.mu.Unlock()
			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      rag.SearchToolName,
				Arguments: map[string]any{"query": "cells"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("rejects a blank query", func() {
			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      rag.SearchToolName,
				Arguments: map[string]any{"query": " "},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})
})
