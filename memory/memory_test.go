package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/fathom-run/fathom/core"
	"github.com/fathom-run/fathom/retriever"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct {
	key     string
	loadErr error
	saveErr error
}

func (s *failingSource) Key() string { return s.key }

func (s *failingSource) Load(context.Context, string) (any, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return "ok", nil
}

func (s *failingSource) Save(context.Context, string, string) error {
	return s.saveErr
}

func TestBufferSourceRoundTrip(t *testing.T) {
	ctx := context.Background()
	buf := NewBufferSource()

	require.NoError(t, buf.Save(ctx, "hello", "hi there"))
	require.NoError(t, buf.Save(ctx, "how are you", "fine"))

	loaded, err := buf.Load(ctx, "")
	require.NoError(t, err)

	messages := loaded.([]core.Message)
	require.Len(t, messages, 4)
	assert.Equal(t, core.RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, core.RoleAssistant, messages[1].Role)
	assert.Equal(t, "hi there", messages[1].Content)
	assert.Equal(t, "fine", messages[3].Content)
}

func TestBufferSourceSetMessages(t *testing.T) {
	buf := NewBufferSource()
	buf.SetMessages([]core.Message{
		{Role: core.RoleUser, Content: "restored"},
		{Role: core.RoleAssistant, Content: "welcome back"},
	})

	messages := buf.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "restored", messages[0].Content)
}

func TestRetrieverSource(t *testing.T) {
	ctx := context.Background()
	store := retriever.NewInMemoryStore()
	src := NewRetrieverSource(store, 2)

	assert.Equal(t, LongTermContextKey, src.Key())

	require.NoError(t, src.Save(ctx, "what is a goroutine", "a lightweight thread"))

	loaded, err := src.Load(ctx, "goroutine")
	require.NoError(t, err)
	assert.Contains(t, loaded.(string), "input: what is a goroutine")
	assert.Contains(t, loaded.(string), "output: a lightweight thread")
}

func TestComposeRejectsDuplicateKeys(t *testing.T) {
	_, err := Compose([]Source{
		&failingSource{key: "a"},
		&failingSource{key: "a"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate source key "a"`)
}

func TestEmptyComposedMemoryIsNoOp(t *testing.T) {
	composed, err := Compose(nil)
	require.NoError(t, err)

	assert.Empty(t, composed.Load(context.Background(), "anything"))
	assert.NoError(t, composed.Save(context.Background(), "q", "a"))
}

func TestComposeSkipsNilSources(t *testing.T) {
	composed, err := Compose([]Source{nil, NewBufferSource(), nil})
	require.NoError(t, err)
	assert.Len(t, composed.Sources(), 1)
}

func TestComposedLoadDegradesOnFailure(t *testing.T) {
	composed, err := Compose([]Source{
		&failingSource{key: "healthy"},
		&failingSource{key: "broken", loadErr: errors.New("store offline")},
	})
	require.NoError(t, err)

	vars := composed.Load(context.Background(), "query")
	assert.Equal(t, "ok", vars["healthy"])
	_, present := vars["broken"]
	assert.False(t, present)
}

func TestComposedSaveCollectsFailures(t *testing.T) {
	buf := NewBufferSource()
	composed, err := Compose([]Source{
		buf,
		&failingSource{key: "broken", saveErr: errors.New("disk full")},
	})
	require.NoError(t, err)

	err = composed.Save(context.Background(), "q", "a")
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Contains(t, saveErr.Failed, "broken")

	// The healthy source still got the turn.
	assert.Len(t, buf.Messages(), 2)
}

func TestNormalizeOutput(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		expect string
	}{
		{"string passes through", "plain", "plain"},
		{"nil is empty", nil, ""},
		{
			"content block list",
			[]any{map[string]any{"type": "text", "text": "first"}, map[string]any{"text": "second"}},
			"first\nsecond",
		},
		{"map with text field", map[string]any{"text": "inner"}, "inner"},
		{"map with output field", map[string]any{"output": "nested"}, "nested"},
		{"string slice", []string{"a", "b"}, "a\nb"},
		{"number falls back", 42, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, NormalizeOutput(tt.input))
		})
	}
}
