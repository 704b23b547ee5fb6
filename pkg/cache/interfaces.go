package cache

import "time"

// Manager defines the interface for cache management operations.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies what to clean from the cache.
type CleanOptions struct {
	All       bool
	Downloads bool
	Partial   bool
	// OlderThan keeps files modified more recently. Zero removes everything selected.
	OlderThan time.Duration
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed    int64
	DownloadFreed int64
	PartialFreed  int64
	FilesRemoved  int
}

// Info represents cache information.
type Info struct {
	Directory     string
	TotalSize     int64
	DownloadSize  int64
	DownloadFiles int
	PartialSize   int64
	PartialFiles  int
	Oldest        time.Time
}
