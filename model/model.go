package model

import (
	"context"
	"fmt"
	"time"

	"github.com/fathom-run/fathom/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by the agent loop.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt for the model
	Contents     []core.Content   `json:"contents"`     // Ordered transcript converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one completed model turn: either a final textual answer or an
// assistant content carrying one or more function call requests.
type Response struct {
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the reasoning capability consumed by agents and pipelines: given an
// ordered transcript plus available tool schemas it produces either a final
// answer or a set of tool invocation requests. Transport-level concerns
// (retries, rate limits, timeouts) belong to the adapter behind this interface.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// Options carries the generation settings recognized by all provider adapters.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	MaxRetries  int
	Timeout     time.Duration
	APIKey      string
}

// DefaultOptions returns the baseline generation settings.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.7,
		MaxTokens:   1024,
		MaxRetries:  3,
		Timeout:     60 * time.Second,
	}
}

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// replays a scripted sequence of responses, cycling when exhausted, and
// records every request it receives.
type MockModel struct {
	info      Info
	responses []Response
	requests  []Request
	calls     int
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(responses ...Response) *MockModel {
	return &MockModel{
		info:      Info{Name: "mock", Provider: "mock", SupportsTools: true},
		responses: responses,
	}
}

// NewMockTextModel constructs a MockModel cycling through plain text answers.
func NewMockTextModel(texts ...string) *MockModel {
	responses := make([]Response, len(texts))
	for i, txt := range texts {
		responses[i] = Response{
			Content:      core.NewTextContent(core.RoleAssistant, txt),
			FinishReason: "stop",
		}
	}
	return NewMockModel(responses...)
}

// Generate implements Model; returns the next scripted response.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock model has no scripted responses")
	}
	m.requests = append(m.requests, req)
	resp := m.responses[m.calls%len(m.responses)]
	m.calls++
	return &resp, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// Calls reports how many Generate invocations were observed.
func (m *MockModel) Calls() int { return m.calls }

// Requests returns the recorded requests in call order.
func (m *MockModel) Requests() []Request { return m.requests }
