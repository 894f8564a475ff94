package retriever

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryStore holds documents in memory and ranks them by term overlap with
// the query. It is meant for tests, examples, and small static corpora; plug
// in a real vector store behind the Retriever interface for anything larger.
type InMemoryStore struct {
	mu        sync.RWMutex
	fragments []Fragment
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Add inserts a document into the corpus.
func (s *InMemoryStore) Add(_ context.Context, content string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = append(s.fragments, Fragment{Content: content, Metadata: metadata})
	return nil
}

// Query scores every document by the number of query terms it contains and
// returns the top k, ties broken by insertion order.
func (s *InMemoryStore) Query(_ context.Context, query string, k int) ([]Fragment, error) {
	if k <= 0 {
		return nil, nil
	}

	terms := strings.Fields(strings.ToLower(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		idx   int
		score int
	}

	matches := make([]scored, 0, len(s.fragments))
	for i, f := range s.fragments {
		content := strings.ToLower(f.Content)
		score := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{idx: i, score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	out := make([]Fragment, len(matches))
	for i, m := range matches {
		out[i] = s.fragments[m.idx]
	}
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
