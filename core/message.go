package core

import "github.com/google/uuid"

// Message roles persisted in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged record of a persisted conversation. Sequences of
// messages are strictly ordered by occurrence; the short-term memory buffer
// replays them in that order when a session is reloaded.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewID generates a new unique identifier used for run correlation.
func NewID() string { return uuid.NewString() }
