// Package archive unpacks ARCHIVE media into an application directory.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"github.com/mholt/archives"
)

// Manager handles archive extraction and creation operations.
type Manager struct {
	// StripRoot drops a single top-level directory shared by every entry,
	// the usual layout of "app-1.2.3/..." release archives.
	StripRoot bool
}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{StripRoot: true}
}

// ExtractAll extracts all files from an archive into destDir, overwriting
// files that already exist, and returns the number of files written.
func (am *Manager) ExtractAll(ctx context.Context, archivePath, destDir string) (int, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	root := "."
	if am.StripRoot {
		if root, err = singleRoot(fsys); err != nil {
			return 0, err
		}
	}

	if err := os.MkdirAll(destDir, fsutil.DirModeDefault); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	written := 0
	err = fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel := path
		if root != "." {
			rel = strings.TrimPrefix(strings.TrimPrefix(path, root), "/")
		}
		n, err := am.extractEntry(fsys, path, rel, destDir, d)
		written += n
		return err
	})
	return written, err
}

// Create writes sourceDir into a gzip compressed tarball at archivePath.
func (am *Manager) Create(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, file, archiveFiles); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}

// singleRoot returns the only top-level directory of fsys, or "." when the
// archive has files at the top level or more than one directory.
func singleRoot(fsys fs.FS) (string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return "", fmt.Errorf("failed to list archive: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return entries[0].Name(), nil
	}
	return ".", nil
}

// extractEntry processes a single archive entry and writes it below destDir.
func (am *Manager) extractEntry(fsys fs.FS, path, rel, destDir string, d fs.DirEntry) (int, error) {
	if rel == "" || rel == "." {
		return 0, nil
	}

	targetPath, err := safeJoin(destDir, rel)
	if err != nil {
		return 0, err
	}

	if d.IsDir() {
		return 0, os.MkdirAll(targetPath, fsutil.DirModeDefault)
	}

	info, err := d.Info()
	if err != nil {
		return 0, fmt.Errorf("failed to get file info for %s: %w", path, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return 1, am.writeSymlink(fsys, path, targetPath)
	}
	return 1, am.writeRegularFile(fsys, path, targetPath, info)
}

// safeJoin rejects entries that would land outside destDir.
func safeJoin(destDir, rel string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(rel))
	back, err := filepath.Rel(destDir, target)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(os.PathSeparator)) {
		return "", errors.Wrapf(errors.ErrInvalidPath, "archive entry %q escapes destination", rel)
	}
	return target, nil
}

// writeSymlink creates a symlink at targetPath with contents from the archive entry at path.
func (am *Manager) writeSymlink(fsys fs.FS, path, targetPath string) error {
	linkTarget, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", path, err)
	}
	defer func() { _ = linkTarget.Close() }()

	targetBytes, err := io.ReadAll(linkTarget)
	if err != nil {
		return fmt.Errorf("failed to read symlink target %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink %s: %w", path, err)
	}

	_ = os.Remove(targetPath)
	return os.Symlink(string(targetBytes), targetPath)
}

// writeRegularFile writes a regular file from the archive entry to targetPath and preserves metadata.
func (am *Manager) writeRegularFile(fsys fs.FS, path, targetPath string, info fs.FileInfo) error {
	srcFile, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(targetPath), fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	dstFile, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file %s: %w", path, err)
	}

	if err := os.Chmod(targetPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", targetPath, err)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}
