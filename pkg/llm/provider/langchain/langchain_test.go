package langchain_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tmc/langchaingo/llms"

	"github.com/papercomputeco/studai/pkg/llm"
	"github.com/papercomputeco/studai/pkg/llm/provider/langchain"
)

// stubModel records what it was sent and replies with a canned response.
type stubModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (s *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	for _, opt := range options {
		opt(&s.options)
	}
	return s.resp, s.err
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

var _ = Describe("Adapter", func() {
	var stub *stubModel

	BeforeEach(func() {
		stub = &stubModel{
			resp: &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{
					Content:    "Cells divide by mitosis.",
					StopReason: "stop",
					GenerationInfo: map[string]any{
						"PromptTokens":     12,
						"CompletionTokens": 5,
						"TotalTokens":      17,
					},
				}},
			},
		}
	})

	It("should report provider and model", func() {
		Expect(langchain.New(stub, "openai", "gpt-5-nano").Name()).To(Equal("openai/gpt-5-nano"))
	})

	It("should map roles and return the text reply", func() {
		a := langchain.New(stub, "openai", "gpt-5-nano")

		resp, err := a.Chat(context.Background(), &llm.ChatRequest{
			Messages: []llm.Message{
				llm.NewTextMessage(llm.RoleSystem, "be brief"),
				llm.NewTextMessage(llm.RoleUser, "how do cells divide?"),
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Message.GetText()).To(Equal("Cells divide by mitosis."))
		Expect(resp.Message.ToolCalls()).To(BeEmpty())
		Expect(resp.Usage).To(Equal(&llm.Usage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17}))

		Expect(stub.messages).To(HaveLen(2))
		Expect(stub.messages[0].Role).To(Equal(llms.ChatMessageTypeSystem))
		Expect(stub.messages[1].Role).To(Equal(llms.ChatMessageTypeHuman))
		Expect(stub.options.Tools).To(BeEmpty())
	})

	It("should pass tools and surface tool calls", func() {
		stub.resp = &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{
				ToolCalls: []llms.ToolCall{{
					ID:   "call_1",
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      "search_corpus",
						Arguments: `{"query":"mitosis"}`,
					},
				}},
			}},
		}

		a := langchain.New(stub, "openai", "gpt-5-nano")
		resp, err := a.Chat(context.Background(), &llm.ChatRequest{
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "q")},
			Tools: []llm.Tool{{
				Name:        "search_corpus",
				Description: "search",
				Parameters:  map[string]any{"type": "object"},
			}},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(stub.options.Tools).To(HaveLen(1))
		Expect(stub.options.Tools[0].Function.Name).To(Equal("search_corpus"))

		calls := resp.Message.ToolCalls()
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].ToolName).To(Equal("search_corpus"))
		Expect(string(calls[0].ToolArguments)).To(Equal(`{"query":"mitosis"}`))
	})

	It("should fall back to the legacy function call field", func() {
		stub.resp = &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{
				FuncCall: &llms.FunctionCall{Name: "search_corpus", Arguments: `{}`},
			}},
		}

		resp, err := langchain.New(stub, "ollama", "llama3.1").Chat(context.Background(), &llm.ChatRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Message.ToolCalls()).To(HaveLen(1))
	})

	It("should error when there are no choices", func() {
		stub.resp = &llms.ContentResponse{}

		_, err := langchain.New(stub, "openai", "m").Chat(context.Background(), &llm.ChatRequest{})
		Expect(err).To(MatchError(llm.ErrNoChoices))
	})

	It("should wrap provider errors", func() {
		stub.err = errors.New("rate limited")

		_, err := langchain.New(stub, "openai", "m").Chat(context.Background(), &llm.ChatRequest{})
		Expect(err).To(MatchError(ContainSubstring("openai/m: rate limited")))
	})
})
