package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/fathom-run/fathom/retriever"
)

const defaultRetrievalTopK = 3

// RetrievalTool exposes a retriever.Retriever as a knowledge base lookup the
// model can call. Results are serialized as source/content blocks so the model
// can cite where a fragment came from.
type RetrievalTool struct {
	ret  retriever.Retriever
	topK int
}

// NewRetrievalTool wraps a retriever. topK <= 0 falls back to the default of 3.
func NewRetrievalTool(ret retriever.Retriever, topK int) *RetrievalTool {
	if topK <= 0 {
		topK = defaultRetrievalTopK
	}
	return &RetrievalTool{ret: ret, topK: topK}
}

func (t *RetrievalTool) Name() string { return "retrieve_context" }

func (t *RetrievalTool) Description() string {
	return "Retrieve relevant context from the knowledge base based on the query."
}

func (t *RetrievalTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to look up in the knowledge base",
			},
		},
		"required": []string{"query"},
	}
}

// Call runs the retrieval and joins the fragments into one text block.
func (t *RetrievalTool) Call(ctx context.Context, args map[string]any) (any, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, NewToolError(t.Name(), "query must be a non-empty string", "VALIDATION_ERROR")
	}

	fragments, err := t.ret.Query(ctx, query, t.topK)
	if err != nil {
		return nil, &ToolError{
			Tool:    t.Name(),
			Message: fmt.Sprintf("retrieval failed: %v", err),
			Code:    "EXECUTION_ERROR",
		}
	}
	if len(fragments) == 0 {
		return "No relevant documents found.", nil
	}

	blocks := make([]string, len(fragments))
	for i, f := range fragments {
		blocks[i] = fmt.Sprintf("Source: %v\nContent: %s", f.Metadata, f.Content)
	}
	return strings.Join(blocks, "\n\n"), nil
}

var _ Tool = (*RetrievalTool)(nil)
