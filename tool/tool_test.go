package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/fathom-run/fathom/retriever"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sum := NewFunctionTool("calculate_sum", "Add two numbers", params,
		func(_ context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})

	result, err := sum.Call(context.Background(), map[string]any{"a": 1.5, "b": 2.5})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []string{"a"},
	}

	tool := NewFunctionTool("needs_a", "Requires a", params,
		func(_ context.Context, _ map[string]any) (any, error) {
			t.Fatal("fn should not run on invalid args")
			return nil, nil
		})

	_, err := tool.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "needs_a", toolErr.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	tool := NewFunctionTool("failing", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("boom")
		})

	_, err := tool.Call(context.Background(), nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_PreservesCustomToolError(t *testing.T) {
	custom := NewToolError("custom", "rate limited", "RATE_LIMITED")
	tool := NewFunctionTool("custom", "Returns custom error",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, custom
		})

	_, err := tool.Call(context.Background(), nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "RATE_LIMITED", toolErr.Code)
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	type args struct {
		Query string `json:"query" description:"What to look up"`
	}

	tool := NewFunctionToolFromStruct("lookup", "Look something up", args{},
		func(_ context.Context, a map[string]any) (any, error) {
			return a["query"], nil
		})

	props := tool.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "query")

	result, err := tool.Call(context.Background(), map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "go", result)
}

// -------------------- RetrievalTool Tests --------------------

func TestRetrievalTool(t *testing.T) {
	ctx := context.Background()
	store := retriever.NewInMemoryStore()
	require.NoError(t, store.Add(ctx, "Go maps are not safe for concurrent writes",
		map[string]any{"source": "maps.md"}))
	require.NoError(t, store.Add(ctx, "Slices share backing arrays",
		map[string]any{"source": "slices.md"}))

	tool := NewRetrievalTool(store, 3)

	t.Run("formats source and content blocks", func(t *testing.T) {
		result, err := tool.Call(ctx, map[string]any{"query": "concurrent maps"})
		require.NoError(t, err)
		text := result.(string)
		assert.Contains(t, text, "Source: map[source:maps.md]")
		assert.Contains(t, text, "Content: Go maps are not safe for concurrent writes")
	})

	t.Run("empty corpus hit", func(t *testing.T) {
		result, err := tool.Call(ctx, map[string]any{"query": "zzz"})
		require.NoError(t, err)
		assert.Equal(t, "No relevant documents found.", result)
	})

	t.Run("rejects missing query", func(t *testing.T) {
		_, err := tool.Call(ctx, map[string]any{})
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	})
}

// -------------------- WebSearchTool Tests --------------------

func TestWebSearchToolFormatResults(t *testing.T) {
	tool := NewWebSearchTool(WithMaxResults(2))

	resp := duckDuckGoResponse{
		Heading:      "Go",
		AbstractText: "Go is a programming language",
		AbstractURL:  "https://go.dev",
	}
	resp.RelatedTopics = append(resp.RelatedTopics, struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
		Topics   []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"Topics"`
	}{Text: "Gopher", FirstURL: "https://go.dev/blog/gopher"})

	digest := tool.formatResults(resp)
	assert.Equal(t,
		"Go: Go is a programming language (https://go.dev)\nGopher (https://go.dev/blog/gopher)",
		digest)
}

func TestWebSearchToolRejectsMissingQuery(t *testing.T) {
	tool := NewWebSearchTool()
	_, err := tool.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}
