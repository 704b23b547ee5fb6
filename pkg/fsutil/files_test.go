package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "registry.yaml")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), FileModeDefault))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), FileModeDefault))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(FileModeDefault), info.Mode().Perm())
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Exists(dir))
	assert.False(t, Exists(filepath.Join(dir, "missing")))
}

func TestGetUserDataDir(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG override only applies on unix-like systems")
	}
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	dir, err := GetUserDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", AppName), dir)
}
