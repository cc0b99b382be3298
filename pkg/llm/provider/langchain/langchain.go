// Package langchain adapts any langchaingo llms.Model to llm.ChatModel.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/papercomputeco/studai/pkg/llm"
)

// Adapter implements llm.ChatModel on top of a langchaingo model.
type Adapter struct {
	model    llms.Model
	provider string
	name     string
}

// New wraps model. provider and name are reported by Name.
func New(model llms.Model, provider, name string) *Adapter {
	return &Adapter{
		model:    model,
		provider: provider,
		name:     name,
	}
}

// Name returns "<provider>/<model>".
func (a *Adapter) Name() string {
	return a.provider + "/" + a.name
}

// Chat sends the conversation and converts the first choice back.
func (a *Adapter) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := a.model.GenerateContent(ctx, convertMessages(req.Messages), buildCallOptions(req)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), err)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), llm.ErrNoChoices)
	}

	return convertChoice(a.name, resp.Choices[0]), nil
}

func convertMessages(messages []llm.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		out = append(out, llms.TextParts(mapRole(msg.Role), msg.GetText()))
	}
	return out
}

func mapRole(role string) llms.ChatMessageType {
	switch role {
	case llm.RoleSystem:
		return llms.ChatMessageTypeSystem
	case llm.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func buildCallOptions(req *llm.ChatRequest) []llms.CallOption {
	var options []llms.CallOption

	if req.Temperature != nil {
		options = append(options, llms.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		options = append(options, llms.WithMaxTokens(*req.MaxTokens))
	}

	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		options = append(options, llms.WithTools(tools))
	}

	return options
}

func convertChoice(model string, choice *llms.ContentChoice) *llm.ChatResponse {
	msg := llm.Message{Role: llm.RoleAssistant}

	if choice.Content != "" {
		msg.Content = append(msg.Content, llm.ContentBlock{Type: "text", Text: choice.Content})
	}

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		msg.Content = append(msg.Content, llm.ContentBlock{
			Type:          "tool_use",
			ToolUseID:     tc.ID,
			ToolName:      tc.FunctionCall.Name,
			ToolArguments: json.RawMessage(tc.FunctionCall.Arguments),
		})
	}

	// Older function-calling responses only fill FuncCall.
	if len(choice.ToolCalls) == 0 && choice.FuncCall != nil {
		msg.Content = append(msg.Content, llm.ContentBlock{
			Type:          "tool_use",
			ToolName:      choice.FuncCall.Name,
			ToolArguments: json.RawMessage(choice.FuncCall.Arguments),
		})
	}

	return &llm.ChatResponse{
		Model:      model,
		Message:    msg,
		StopReason: choice.StopReason,
		Usage:      usageFrom(choice.GenerationInfo),
	}
}

func usageFrom(info map[string]any) *llm.Usage {
	if info == nil {
		return nil
	}

	u := &llm.Usage{
		PromptTokens:     intField(info, "PromptTokens"),
		CompletionTokens: intField(info, "CompletionTokens"),
		TotalTokens:      intField(info, "TotalTokens"),
	}
	if *u == (llm.Usage{}) {
		return nil
	}
	return u
}

func intField(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

var _ llm.ChatModel = (*Adapter)(nil)
