package cache

import (
	"fmt"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
)

// CacheOperation represents an operation that can be performed on the cache.
type CacheOperation struct {
	manager Manager
}

// NewCacheOperation creates a new cache operation instance.
func NewCacheOperation(manager Manager) *CacheOperation {
	return &CacheOperation{
		manager: manager,
	}
}

// Clean cleans the cache and returns a human-readable summary.
func (op *CacheOperation) Clean(options CleanOptions) (string, error) {
	logger.Debug("Cleaning cache", logger.Fields{
		"all":        options.All,
		"downloads":  options.Downloads,
		"partial":    options.Partial,
		"older_than": options.OlderThan.String(),
	})

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", fmt.Errorf("failed to clean cache: %w", err)
	}

	if result.TotalFreed == 0 && result.FilesRemoved == 0 {
		return "No files were removed from the cache.", nil
	}

	msg := fmt.Sprintf("Successfully cleaned cache. Removed %d files, freed %s of disk space.",
		result.FilesRemoved, formatBytes(result.TotalFreed))
	if result.DownloadFreed > 0 {
		msg += fmt.Sprintf("\n- Downloads: %s", formatBytes(result.DownloadFreed))
	}
	if result.PartialFreed > 0 {
		msg += fmt.Sprintf("\n- Partial downloads: %s", formatBytes(result.PartialFreed))
	}
	return msg, nil
}

// GetInfo returns information about the cache.
func (op *CacheOperation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", fmt.Errorf("failed to get cache info: %w", err)
	}

	oldest := "n/a"
	if !info.Oldest.IsZero() {
		oldest = info.Oldest.Format(time.RFC1123)
	}

	return fmt.Sprintf(`Cache Information:
  Directory:    %s
  Total Size:   %s
  Downloads:    %s (%d files)
  Partial:      %s (%d files)
  Oldest File:  %s`,
		info.Directory,
		formatBytes(info.TotalSize),
		formatBytes(info.DownloadSize),
		info.DownloadFiles,
		formatBytes(info.PartialSize),
		info.PartialFiles,
		oldest,
	), nil
}

// GetDirectory returns the cache directory path.
func (op *CacheOperation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}
