package sqlitebacking

import (
	"context"
	"path/filepath"
	"testing"

	reactive "github.com/goliatone/go-reactive"
	"github.com/goliatone/go-reactive/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBacking(t *testing.T) (*Backing, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stores.db")
	b, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, path
}

func TestReadMissingIdent(t *testing.T) {
	b, _ := openTestBacking(t)

	data, _, ok, err := b.Read(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestWriteThenReadReplaces(t *testing.T) {
	b, _ := openTestBacking(t)
	ctx := context.Background()

	_, err := b.Write(ctx, "prefs", []byte(`{"a":1}`), store.Meta{SnapshotID: "one"})
	require.NoError(t, err)
	meta, err := b.Write(ctx, "prefs", []byte(`{"a":2}`), store.Meta{SnapshotID: "two"})
	require.NoError(t, err)

	data, readMeta, ok, err := b.Read(ctx, "prefs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":2}`, string(data))
	assert.Equal(t, "two", readMeta.SnapshotID)
	assert.True(t, meta.UpdatedAt.Equal(readMeta.UpdatedAt))

	require.NoError(t, b.Delete(ctx, "prefs"))
	_, _, ok, err = b.Read(ctx, "prefs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.db")
	for i := 0; i < 3; i++ {
		b, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, b.Close())
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	b, path := openTestBacking(t)
	cfg := store.Config{Ident: "counter", Autosave: store.AutosaveAuto}

	rt := reactive.NewRuntime()
	s, err := store.Open(ctx, rt, map[string]any{"count": 0}, cfg, store.WithBacking(b))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.State().Set("count", 5))
	require.NoError(t, s.LastError())
	require.NoError(t, b.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	restored, err := store.Open(ctx, reactive.NewRuntime(), map[string]any{"count": 0, "step": 1}, cfg, store.WithBacking(reopened))
	require.NoError(t, err)
	defer restored.Close()
	assert.Equal(t, 5, restored.State().Get("count"))
	assert.Equal(t, 1, restored.State().Get("step"))
}
