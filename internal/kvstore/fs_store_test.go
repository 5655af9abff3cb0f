package kvstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := NewFSStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Path())

	require.NoError(t, s.Set(t.Context(), "petData", `{"fullness":1}`))

	data, err := os.ReadFile(filepath.Join(dir, "petData.kv"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"fullness":1}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestFSStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFSStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(t.Context(), "can", "7"))
	require.NoError(t, first.Close())

	second, err := NewFSStore(dir)
	require.NoError(t, err)
	got, err := second.Get(t.Context(), "can")
	require.NoError(t, err)
	assert.Equal(t, "7", got.Unwrap())
}

func TestFSStoreRequiresPath(t *testing.T) {
	_, err := NewFSStore("")
	assert.Error(t, err)
}

func TestFSStoreClosed(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Set(t.Context(), "can", "1"), ErrClosed)
}
