package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/fathom-run/fathom/logging"
)

// Composed aggregates several sources into one load/save surface. Keys are
// unique across sources; Compose rejects duplicates at construction.
type Composed struct {
	sources []Source
	logger  logging.Logger
}

// ComposeOption customizes a Composed.
type ComposeOption func(*Composed)

// WithLogger sets the logger used to report degraded sources.
func WithLogger(logger logging.Logger) ComposeOption {
	return func(c *Composed) { c.logger = logger }
}

// Compose builds a Composed from the given sources. Nil sources are skipped;
// two sources claiming the same key is a configuration error.
func Compose(sources []Source, optFns ...ComposeOption) (*Composed, error) {
	c := &Composed{logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(c)
	}

	seen := map[string]bool{}
	for _, src := range sources {
		if src == nil {
			continue
		}
		key := src.Key()
		if seen[key] {
			return nil, fmt.Errorf("memory: duplicate source key %q", key)
		}
		seen[key] = true
		c.sources = append(c.sources, src)
	}
	return c, nil
}

// Load gathers every source's contribution keyed by source key. A source that
// fails to load is logged and omitted; the remaining context is still usable.
func (c *Composed) Load(ctx context.Context, query string) map[string]any {
	vars := make(map[string]any, len(c.sources))
	for _, src := range c.sources {
		value, err := src.Load(ctx, query)
		if err != nil {
			c.logger.Warn("memory.load.degraded", "key", src.Key(), "error", err.Error())
			continue
		}
		vars[src.Key()] = value
	}
	return vars
}

// SaveError reports which sources failed during a best-effort save.
type SaveError struct {
	Failed map[string]error
}

func (e *SaveError) Error() string {
	keys := make([]string, 0, len(e.Failed))
	for k := range e.Failed {
		keys = append(keys, k)
	}
	return fmt.Sprintf("memory: save failed for sources: %s", strings.Join(keys, ", "))
}

// Save writes the finished turn to every source. All sources are attempted
// even when one fails; failures are collected into a *SaveError.
func (c *Composed) Save(ctx context.Context, input string, output any) error {
	text := NormalizeOutput(output)

	failed := map[string]error{}
	for _, src := range c.sources {
		if err := src.Save(ctx, input, text); err != nil {
			c.logger.Warn("memory.save.failed", "key", src.Key(), "error", err.Error())
			failed[src.Key()] = err
		}
	}
	if len(failed) > 0 {
		return &SaveError{Failed: failed}
	}
	return nil
}

// Sources returns the composed sources in registration order.
func (c *Composed) Sources() []Source { return c.sources }
