package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"github.com/hashicorp/go-multierror"
)

// DefaultManager implements the Manager interface for cache operations.
type DefaultManager struct {
	directory string
	now       func() time.Time
}

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
		now:       time.Now,
	}
}

// NewDefaultManager creates a new cache manager with default directory.
func NewDefaultManager() (*DefaultManager, error) {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user cache directory")
	}

	if err := os.MkdirAll(cacheDir, os.FileMode(CacheDirPerm)); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory")
	}

	return NewManager(cacheDir), nil
}

// Clean removes cached files according to the specified options. Files that
// could not be removed are reported in the error; the result still counts
// everything that was removed.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	result := &CleanResult{}

	if !options.Downloads && !options.Partial {
		options.All = true
	}

	var cutoff time.Time
	if options.OlderThan > 0 {
		cutoff = cm.now().Add(-options.OlderThan)
	}

	var failed *multierror.Error
	dir := cm.downloadsDir()
	if options.All || options.Partial {
		size, count, err := removeFiles(dir, cutoff, isPartial)
		if err != nil {
			failed = multierror.Append(failed, err)
		}
		result.PartialFreed = size
		result.FilesRemoved += count
	}

	if options.All || options.Downloads {
		size, count, err := removeFiles(dir, cutoff, func(name string) bool { return !isPartial(name) })
		if err != nil {
			failed = multierror.Append(failed, err)
		}
		result.DownloadFreed = size
		result.FilesRemoved += count
	}

	result.TotalFreed = result.DownloadFreed + result.PartialFreed
	logger.Debug("Cleaned cache", logger.Fields{"dir": dir, "files": result.FilesRemoved, "freed": result.TotalFreed})
	if err := failed.ErrorOrNil(); err != nil {
		return result, errors.Wrapf(ErrCacheClean, "%v", err)
	}
	return result, nil
}

// GetInfo returns information about the cache.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: cm.directory}

	entries, err := os.ReadDir(cm.downloadsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return nil, errors.Wrapf(ErrCacheInfo, "%v", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if isPartial(entry.Name()) {
			info.PartialSize += fi.Size()
			info.PartialFiles++
		} else {
			info.DownloadSize += fi.Size()
			info.DownloadFiles++
		}
		if info.Oldest.IsZero() || fi.ModTime().Before(info.Oldest) {
			info.Oldest = fi.ModTime()
		}
	}

	info.TotalSize = info.DownloadSize + info.PartialSize
	return info, nil
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// SetDirectory sets the cache directory path.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if dir == "" {
		return ErrCacheDirectory
	}
	cm.directory = dir
	return nil
}

func (cm *DefaultManager) downloadsDir() string {
	return filepath.Join(cm.directory, DownloadsDir)
}

func isPartial(name string) bool {
	ok, _ := filepath.Match(PartialPattern, name)
	return ok
}

// removeFiles deletes the regular files in dir accepted by selected and last
// modified before cutoff (any time when cutoff is zero). It returns the
// bytes freed and the number of files removed. Files that cannot be removed
// are skipped and reported together.
func removeFiles(dir string, cutoff time.Time, selected func(name string) bool) (size int64, count int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	var result *multierror.Error
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !selected(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if !cutoff.IsZero() && !fi.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		size += fi.Size()
		count++
	}
	return size, count, result.ErrorOrNil()
}
