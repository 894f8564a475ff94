package memory

import (
	"context"
	"sync"

	"github.com/fathom-run/fathom/core"
)

// ChatHistoryKey is the context variable filled by BufferSource.
const ChatHistoryKey = "chat_history"

// BufferSource keeps the full conversation in memory as an ordered message
// list. Safe for concurrent use.
type BufferSource struct {
	mu       sync.RWMutex
	messages []core.Message
}

// NewBufferSource creates an empty conversation buffer.
func NewBufferSource() *BufferSource {
	return &BufferSource{}
}

func (s *BufferSource) Key() string { return ChatHistoryKey }

// Load returns a copy of the buffered messages as []core.Message.
func (s *BufferSource) Load(_ context.Context, _ string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

// Save appends the turn as a user message followed by an assistant message.
func (s *BufferSource) Save(_ context.Context, input, output string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages,
		core.Message{Role: core.RoleUser, Content: input},
		core.Message{Role: core.RoleAssistant, Content: output},
	)
	return nil
}

// Messages returns a copy of the current buffer.
func (s *BufferSource) Messages() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetMessages replaces the buffer contents, used when restoring a persisted
// conversation.
func (s *BufferSource) SetMessages(messages []core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make([]core.Message, len(messages))
	copy(s.messages, messages)
}

var _ Source = (*BufferSource)(nil)
