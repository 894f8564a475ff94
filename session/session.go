// Package session persists conversation history keyed by session id. Stores
// hold opaque blobs; EncodeMessages/DecodeMessages define the JSON layout the
// agent layer writes. Every save replaces the whole history for the session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fathom-run/fathom/core"
)

// ErrNotFound is returned by Load when no history exists for the session id.
// Callers treat it as a fresh conversation.
var ErrNotFound = errors.New("session not found")

// Store is a session-keyed blob store.
type Store interface {
	// Save replaces the stored blob for the session.
	Save(ctx context.Context, sessionID string, data []byte) error

	// Load returns the stored blob, or ErrNotFound.
	Load(ctx context.Context, sessionID string) ([]byte, error)
}

// EncodeMessages serializes a conversation buffer for storage.
func EncodeMessages(messages []core.Message) ([]byte, error) {
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// DecodeMessages restores a conversation buffer from its stored form.
func DecodeMessages(data []byte) ([]core.Message, error) {
	var messages []core.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return messages, nil
}
