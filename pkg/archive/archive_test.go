package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestExtractAllStripsSingleRoot(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, map[string]string{
		"app-2.0.0/bin/app":      "#!/bin/sh\n",
		"app-2.0.0/lib/core.jar": "jar",
		"app-2.0.0/README.txt":   "hello",
	})

	am := NewManager()
	ctx := context.Background()
	archivePath := filepath.Join(tempDir, "app-linux-x64-2.0.0.tar.gz")
	require.NoError(t, am.Create(ctx, sourceDir, archivePath))

	destDir := filepath.Join(tempDir, "installed")
	n, err := am.ExtractAll(ctx, archivePath, destDir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	content, err := os.ReadFile(filepath.Join(destDir, "lib", "core.jar"))
	require.NoError(t, err)
	assert.Equal(t, "jar", string(content))
	assert.NoDirExists(t, filepath.Join(destDir, "app-2.0.0"))
}

func TestExtractAllKeepsFlatLayout(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, map[string]string{
		"bin/app":    "v2",
		"README.txt": "hello",
	})

	am := NewManager()
	ctx := context.Background()
	archivePath := filepath.Join(tempDir, "app.tar.gz")
	require.NoError(t, am.Create(ctx, sourceDir, archivePath))

	destDir := filepath.Join(tempDir, "installed")
	writeTree(t, destDir, map[string]string{"bin/app": "v1", "keep.cfg": "user"})

	_, err := am.ExtractAll(ctx, archivePath, destDir)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(destDir, "bin", "app"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))
	assert.FileExists(t, filepath.Join(destDir, "keep.cfg"))
	assert.FileExists(t, filepath.Join(destDir, "README.txt"))
}

func TestExtractAllMissingArchive(t *testing.T) {
	_, err := NewManager().ExtractAll(context.Background(), filepath.Join(t.TempDir(), "nope.zip"), t.TempDir())
	assert.Error(t, err)
}

func TestSafeJoin(t *testing.T) {
	dest := t.TempDir()

	got, err := safeJoin(dest, "lib/core.jar")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "lib", "core.jar"), got)

	_, err = safeJoin(dest, "../evil")
	assert.ErrorIs(t, err, errors.ErrInvalidPath)
	_, err = safeJoin(dest, "lib/../../evil")
	assert.ErrorIs(t, err, errors.ErrInvalidPath)
}
