// Package retriever defines the document retrieval abstraction used for
// long-term context injection and the knowledge base tool, plus a simple
// in-memory implementation for tests and small corpora.
package retriever

import "context"

// Fragment is a single retrieved piece of context plus its source metadata.
type Fragment struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Source returns the fragment's "source" metadata value, or empty string.
func (f Fragment) Source() string {
	if f.Metadata == nil {
		return ""
	}
	s, _ := f.Metadata["source"].(string)
	return s
}

// Retriever returns the fragments most relevant to a query, best first.
// Implementations return at most k fragments; fewer (or none) when the
// underlying corpus is smaller.
type Retriever interface {
	Query(ctx context.Context, query string, k int) ([]Fragment, error)
}

// Store is a Retriever whose corpus can be extended at runtime.
type Store interface {
	Retriever

	// Add inserts a document into the corpus.
	Add(ctx context.Context, content string, metadata map[string]any) error
}
