package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	docs := []struct {
		content string
		source  string
	}{
		{"Go channels carry typed values between goroutines", "concurrency.md"},
		{"The garbage collector runs concurrently with the program", "gc.md"},
		{"Channels and select statements compose naturally", "select.md"},
		{"HTTP handlers must be safe for concurrent use", "http.md"},
	}
	for _, d := range docs {
		require.NoError(t, store.Add(ctx, d.content, map[string]any{"source": d.source}))
	}

	t.Run("ranks by term overlap", func(t *testing.T) {
		got, err := store.Query(ctx, "channels goroutines", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "concurrency.md", got[0].Source())
	})

	t.Run("caps results at k", func(t *testing.T) {
		got, err := store.Query(ctx, "concurrent channels", 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("no matches returns empty", func(t *testing.T) {
		got, err := store.Query(ctx, "quantum", 3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("non-positive k returns nothing", func(t *testing.T) {
		got, err := store.Query(ctx, "channels", 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestFragmentSource(t *testing.T) {
	assert.Equal(t, "", Fragment{}.Source())
	assert.Equal(t, "a.md", Fragment{Metadata: map[string]any{"source": "a.md"}}.Source())
}
