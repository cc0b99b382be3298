package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studai/pkg/embeddings/openai"
	"github.com/papercomputeco/studai/pkg/vector"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		received map[string]any
		status   int
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(strings.HasSuffix(r.URL.Path, "/embeddings")).To(BeTrue())
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if status != http.StatusOK {
				w.Write([]byte(`{"error": {"message": "quota exceeded", "type": "insufficient_quota"}}`))
				return
			}
			w.Write([]byte(`{
				"object": "list",
				"data": [{"object": "embedding", "index": 0, "embedding": [0.5, 0.25, 0.125]}],
				"model": "text-embedding-3-small",
				"usage": {"prompt_tokens": 2, "total_tokens": 2}
			}`))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newEmbedder := func(dims uint) *openai.Embedder {
		e, err := openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:    server.URL + "/v1",
			APIKey:     "test-key",
			Dimensions: dims,
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	It("should embed text with the default model", func() {
		v, err := newEmbedder(0).Embed(context.Background(), "photosynthesis")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]float32{0.5, 0.25, 0.125}))
		Expect(received).To(HaveKeyWithValue("model", openai.DefaultEmbeddingModel))
	})

	It("should wrap provider failures as embedding errors", func() {
		status = http.StatusTooManyRequests

		_, err := newEmbedder(0).Embed(context.Background(), "photosynthesis")
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})

	It("should enforce configured dimensions", func() {
		_, err := newEmbedder(1536).Embed(context.Background(), "photosynthesis")
		Expect(err).To(MatchError(ContainSubstring("expected 1536")))
	})
})
