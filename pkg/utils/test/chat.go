package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/papercomputeco/studai/pkg/llm"
)

// MockChatModel replays queued responses in order. Once the queue is
// exhausted it answers with DefaultText.
type MockChatModel struct {
	Responses   []*llm.ChatResponse
	DefaultText string

	// Err is returned from every Chat call when set
	Err error

	mu       sync.Mutex
	requests []*llm.ChatRequest
}

func NewMockChatModel() *MockChatModel {
	return &MockChatModel{DefaultText: "mock answer"}
}

func (m *MockChatModel) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}
	return TextResponse(m.DefaultText), nil
}

func (m *MockChatModel) Name() string {
	return "mock/model"
}

// Requests returns every request passed to Chat.
func (m *MockChatModel) Requests() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*llm.ChatRequest(nil), m.requests...)
}

// TextResponse builds a plain assistant reply.
func TextResponse(text string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model:      "mock/model",
		Message:    llm.NewTextMessage(llm.RoleAssistant, text),
		StopReason: "stop",
	}
}

// ToolCallResponse builds an assistant reply that calls the named tool with
// the given raw JSON arguments.
func ToolCallResponse(name, arguments string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model: "mock/model",
		Message: llm.Message{
			Role: llm.RoleAssistant,
			Content: []llm.ContentBlock{{
				Type:          "tool_use",
				ToolUseID:     "call_1",
				ToolName:      name,
				ToolArguments: json.RawMessage(arguments),
			}},
		},
		StopReason: "tool_calls",
	}
}

// ErrMockUpstream is a convenience error for failing chat models.
var ErrMockUpstream = errors.New("mock upstream failure")
