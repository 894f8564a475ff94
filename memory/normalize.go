package memory

import (
	"fmt"
	"strings"
)

// NormalizeOutput flattens a model output of unknown shape into plain text.
// Providers return either a bare string, a content-block list whose elements
// carry a "text" field, or a single map with a "text" or "output" field.
// Anything else falls back to its default string formatting.
func NormalizeOutput(output any) string {
	switch v := output.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if text := NormalizeOutput(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	case []string:
		return strings.Join(v, "\n")
	case map[string]any:
		if text, ok := v["text"].(string); ok {
			return text
		}
		if out, ok := v["output"]; ok {
			return NormalizeOutput(out)
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
