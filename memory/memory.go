// Package memory composes prompt context from multiple sources (conversation
// buffer, long-term retrieval) under unique keys, and persists finished turns
// back into them. Composition degrades gracefully: a failing source is logged
// and skipped on load, never fatal.
package memory

import "context"

// Source contributes one named variable to the composed prompt context.
//
// Load receives the current user query so retrieval-backed sources can select
// relevant context. Save receives the finished turn for sources that
// accumulate history.
type Source interface {
	// Key returns the unique context variable name this source fills.
	Key() string

	// Load produces the source's contribution for the given query.
	Load(ctx context.Context, query string) (any, error)

	// Save records a completed input/output turn.
	Save(ctx context.Context, input, output string) error
}
