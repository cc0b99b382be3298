package chroma_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studai/pkg/logger"
	"github.com/papercomputeco/studai/pkg/vector"
	"github.com/papercomputeco/studai/pkg/vector/chroma"
)

// fakeChroma serves just enough of the v2 REST API for the driver.
type fakeChroma struct {
	created  map[string]any
	upserted map[string]any
	deleted  map[string]any
}

func (f *fakeChroma) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	decode := func() map[string]any {
		var body map[string]any
		Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
		return body
	}

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/collections/notes"):
		http.Error(w, "not found", http.StatusNotFound)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/collections"):
		f.created = decode()
		json.NewEncoder(w).Encode(map[string]string{"id": "col-1", "name": "notes"})
	case strings.HasSuffix(r.URL.Path, "/col-1/upsert"):
		f.upserted = decode()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`true`))
	case strings.HasSuffix(r.URL.Path, "/col-1/query"):
		w.Write([]byte(`{
			"ids": [["a", "b"]],
			"distances": [[0.1, 0.4]],
			"metadatas": [[{"filename": "a.pdf", "page": 2}, {"filename": "b.pdf", "page": 7}]],
			"documents": [["alpha text", "beta text"]]
		}`))
	case strings.HasSuffix(r.URL.Path, "/col-1/get"):
		w.Write([]byte(`{
			"ids": ["a"],
			"metadatas": [{"filename": "a.pdf", "page": 2}],
			"documents": ["alpha text"],
			"embeddings": [[1, 0]]
		}`))
	case strings.HasSuffix(r.URL.Path, "/col-1/delete"):
		f.deleted = decode()
		w.Write([]byte(`[]`))
	default:
		http.Error(w, "unexpected "+r.URL.Path, http.StatusTeapot)
	}
}

var _ = Describe("Driver", func() {
	var log *slog.Logger

	BeforeEach(func() {
		log = logger.Nop()
	})

	Describe("NewDriver", func() {
		It("should return an error when URL is empty", func() {
			_, err := chroma.NewDriver(chroma.Config{URL: ""}, log)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("should create the collection in cosine space", func() {
			fake := &fakeChroma{}
			server := httptest.NewServer(fake)
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{URL: server.URL}, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.created).To(HaveKeyWithValue("name", "notes"))
			Expect(fake.created["metadata"]).To(HaveKeyWithValue("hnsw:space", "cosine"))
		})

		It("should succeed after retrying when Chroma becomes available", func() {
			var attempts atomic.Int32

			// Each retry cycle hits GET then POST. Fail two full cycles,
			// succeed on the GET of the third.
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempt := attempts.Add(1)
				if attempt <= 4 {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"id":   "test-collection-id",
					"name": "notes",
				})
			}))
			defer server.Close()

			driver, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    5,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(attempts.Load()).To(BeNumerically(">=", int32(5)))
		})

		It("should return an error after exhausting all retries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    3,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, log)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
		})
	})

	Describe("Operations", func() {
		var (
			fake   *fakeChroma
			server *httptest.Server
			driver *chroma.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			fake = &fakeChroma{}
			server = httptest.NewServer(fake)

			var err error
			driver, err = chroma.NewDriver(chroma.Config{URL: server.URL}, log)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
			server.Close()
		})

		It("should upsert documents with content and metadata", func() {
			err := driver.Add(ctx, []vector.Document{
				{ID: "a", Content: "alpha text", Filename: "a.pdf", Page: 2, Embedding: []float32{1, 0}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.upserted["ids"]).To(ConsistOf("a"))
			Expect(fake.upserted["documents"]).To(ConsistOf("alpha text"))

			metas, ok := fake.upserted["metadatas"].([]any)
			Expect(ok).To(BeTrue())
			Expect(metas[0]).To(HaveKeyWithValue("filename", "a.pdf"))
			Expect(metas[0]).To(HaveKeyWithValue("page", BeNumerically("==", 2)))
		})

		It("should convert query results into scored documents", func() {
			results, err := driver.Query(ctx, []float32{1, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Filename).To(Equal("a.pdf"))
			Expect(results[0].Page).To(Equal(2))
			Expect(results[0].Content).To(Equal("alpha text"))
			Expect(results[0].Score).To(BeNumerically("~", 0.9, 0.0001))
			Expect(results[1].Page).To(Equal(7))
		})

		It("should get documents by ID", func() {
			docs, err := driver.Get(ctx, []string{"a"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Filename).To(Equal("a.pdf"))
			Expect(docs[0].Embedding).To(Equal([]float32{1, 0}))
		})

		It("should delete documents by ID", func() {
			Expect(driver.Delete(ctx, []string{"a", "b"})).To(Succeed())
			Expect(fake.deleted["ids"]).To(ConsistOf("a", "b"))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*chroma.Driver)(nil)
		})
	})
})
