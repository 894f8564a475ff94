package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	t.Run("plain text passes through", func(t *testing.T) {
		out, err := RenderTemplate("no markers here", nil)
		require.NoError(t, err)
		assert.Equal(t, "no markers here", out)
	})

	t.Run("substitutes state values", func(t *testing.T) {
		out, err := RenderTemplate("Hello {{.name}}", map[string]any{"name": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "Hello Ada", out)
	})

	t.Run("default helper", func(t *testing.T) {
		out, err := RenderTemplate(`{{.tone | default "neutral"}}`, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "neutral", out)
	})

	t.Run("invalid template returns error", func(t *testing.T) {
		_, err := RenderTemplate("{{.broken", nil)
		assert.Error(t, err)
	})
}

func TestCreateSchema(t *testing.T) {
	type searchArgs struct {
		Query string `json:"query" description:"search query"`
		Limit int    `json:"limit,omitempty"`
	}

	schema := CreateSchema(searchArgs{})
	assert.Equal(t, "object", schema["type"])

	props := schema["properties"].(map[string]any)
	query := props["query"].(map[string]any)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "search query", query["description"])
	assert.Equal(t, "integer", props["limit"].(map[string]any)["type"])

	assert.Equal(t, []string{"query"}, schema["required"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
		},
		"required": []any{"query"},
	}

	t.Run("valid params", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"query": "go", "limit": 3}, schema)
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"limit": 3}, schema)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "query", verr.Field)
	})

	t.Run("wrong type", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"query": 42}, schema)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "query", verr.Field)
	})

	t.Run("json numbers accepted as integers", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"query": "go", "limit": float64(3)}, schema)
		assert.NoError(t, err)
	})

	t.Run("extra fields allowed", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"query": "go", "region": "us"}, schema)
		assert.NoError(t, err)
	})
}
