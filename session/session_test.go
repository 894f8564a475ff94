package session

import (
	"context"
	"testing"

	"github.com/fathom-run/fathom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMessages(t *testing.T) {
	messages := []core.Message{
		{Role: core.RoleUser, Content: "hello"},
		{Role: core.RoleAssistant, Content: "hi"},
	}

	data, err := EncodeMessages(messages)
	require.NoError(t, err)

	restored, err := DecodeMessages(data)
	require.NoError(t, err)
	assert.Equal(t, messages, restored)
}

func TestDecodeMessagesRejectsGarbage(t *testing.T) {
	_, err := DecodeMessages([]byte("{not json"))
	assert.Error(t, err)
}

func storeTests(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("missing session returns ErrNotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s1", []byte(`[{"role":"user","content":"hi"}]`)))
		data, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"role":"user","content":"hi"}]`, string(data))
	})

	t.Run("save overwrites previous data", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s2", []byte(`["old"]`)))
		require.NoError(t, store.Save(ctx, "s2", []byte(`["new"]`)))
		data, err := store.Load(ctx, "s2")
		require.NoError(t, err)
		assert.JSONEq(t, `["new"]`, string(data))
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a", []byte(`["a"]`)))
		require.NoError(t, store.Save(ctx, "b", []byte(`["b"]`)))
		dataA, err := store.Load(ctx, "a")
		require.NoError(t, err)
		dataB, err := store.Load(ctx, "b")
		require.NoError(t, err)
		assert.NotEqual(t, string(dataA), string(dataB))
	})
}

func TestInMemoryStore(t *testing.T) {
	storeTests(t, NewInMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	storeTests(t, store)
}

func TestFileStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		assert.Error(t, store.Save(context.Background(), id, []byte("x")), "id %q", id)
	}
}
