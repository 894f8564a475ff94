package session

import (
	"context"
	"sync"
)

// InMemoryStore keeps session blobs in a map, mainly for tests and examples.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: map[string][]byte{}}
}

func (s *InMemoryStore) Save(_ context.Context, sessionID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob := make([]byte, len(data))
	copy(blob, data)
	s.data[sessionID] = blob
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.data[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
