package rag_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studai/pkg/rag"
)

var _ = Describe("SearchTool", func() {
	It("describes a single required string query", func() {
		tool := rag.SearchTool()
		Expect(tool.Name).To(Equal(rag.SearchToolName))
		Expect(tool.Description).NotTo(BeEmpty())

		raw, err := json.Marshal(tool.Parameters)
		Expect(err).NotTo(HaveOccurred())

		var schema map[string]any
		Expect(json.Unmarshal(raw, &schema)).To(Succeed())
		Expect(schema).To(HaveKeyWithValue("type", "object"))
		Expect(schema).To(HaveKeyWithValue("required", ConsistOf("query")))
		Expect(schema).To(HaveKeyWithValue("additionalProperties", false))

		props, ok := schema["properties"].(map[string]any)
		Expect(ok).To(BeTrue())
		query, ok := props["query"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(query).To(HaveKeyWithValue("type", "string"))
	})
})

var _ = Describe("ParseSearchArgs", func() {
	It("accepts a well formed object and trims the query", func() {
		args, err := rag.ParseSearchArgs([]byte(`{"query": "  cell respiration  "}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(args.Query).To(Equal("cell respiration"))
	})

	DescribeTable("rejects malformed arguments",
		func(raw string) {
			_, err := rag.ParseSearchArgs([]byte(raw))
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ``),
		Entry("null", `null`),
		Entry("array", `[{"query":"x"}]`),
		Entry("string", `"query"`),
		Entry("invalid json", `{"query":`),
		Entry("unknown field", `{"query":"x","limit":5}`),
		Entry("wrong type", `{"query":42}`),
		Entry("missing query", `{}`),
		Entry("blank query", `{"query":"   "}`),
		Entry("trailing object", `{"query":"a"}{"query":"b"}`),
		Entry("too long", `{"query":"`+strings.Repeat("é", rag.MaxSearchQueryRunes+1)+`"}`),
	)

	It("counts the length limit in runes", func() {
		args, err := rag.ParseSearchArgs([]byte(`{"query":"` + strings.Repeat("é", rag.MaxSearchQueryRunes) + `"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect([]rune(args.Query)).To(HaveLen(rag.MaxSearchQueryRunes))
	})
})
