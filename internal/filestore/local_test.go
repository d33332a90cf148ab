package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveOpenRemove(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path := "uploads/user-1/42/field_7_abc.pdf"
	require.NoError(t, store.Save(ctx, path, strings.NewReader("hello"), 5))

	rc, err := store.Open(ctx, path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Remove(ctx, path))
	_, err = store.Open(ctx, path)
	assert.Error(t, err)

	// Removing again is not an error.
	assert.NoError(t, store.Remove(ctx, path))
}

func TestLocalStore_RemoveAll(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "uploads/user-1/42/a.pdf", strings.NewReader("a"), 1))
	require.NoError(t, store.Save(ctx, "uploads/user-1/42/b.pdf", strings.NewReader("b"), 1))
	require.NoError(t, store.Save(ctx, "uploads/user-1/43/c.pdf", strings.NewReader("c"), 1))

	require.NoError(t, store.RemoveAll(ctx, "uploads/user-1/42"))

	_, err = os.Stat(filepath.Join(root, "uploads/user-1/42"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "uploads/user-1/43/c.pdf"))
	assert.NoError(t, err)
}

func TestLocalStore_RejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "../outside.txt", strings.NewReader("x"), 1))
	assert.Error(t, store.Save(ctx, "/etc/passwd", strings.NewReader("x"), 1))
	_, err = store.Open(ctx, "../../secrets")
	assert.Error(t, err)
}
