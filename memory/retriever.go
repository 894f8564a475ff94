package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/fathom-run/fathom/retriever"
)

// LongTermContextKey is the context variable filled by RetrieverSource.
const LongTermContextKey = "long_term_context"

const defaultRetrieverTopK = 3

// RetrieverSource surfaces fragments relevant to the current query as a text
// block, and writes finished turns back into the store so future sessions can
// recall them.
type RetrieverSource struct {
	store retriever.Store
	topK  int
}

// NewRetrieverSource wraps a retrieval store. topK <= 0 falls back to 3.
func NewRetrieverSource(store retriever.Store, topK int) *RetrieverSource {
	if topK <= 0 {
		topK = defaultRetrieverTopK
	}
	return &RetrieverSource{store: store, topK: topK}
}

func (s *RetrieverSource) Key() string { return LongTermContextKey }

// Load queries the store and joins the fragment contents into one string.
func (s *RetrieverSource) Load(ctx context.Context, query string) (any, error) {
	fragments, err := s.store.Query(ctx, query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retriever source: %w", err)
	}
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.Content
	}
	return strings.Join(parts, "\n\n"), nil
}

// Save records the turn as a single document so later queries can retrieve it.
func (s *RetrieverSource) Save(ctx context.Context, input, output string) error {
	doc := fmt.Sprintf("input: %s\noutput: %s", input, output)
	if err := s.store.Add(ctx, doc, nil); err != nil {
		return fmt.Errorf("retriever source: %w", err)
	}
	return nil
}

var _ Source = (*RetrieverSource)(nil)
