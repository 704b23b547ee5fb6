package cache

import (
	"fmt"

	"github.com/glorpus-work/upkeep/pkg/fsutil"
)

// CacheDirPerm is the default permission mode for cache directories (rwx------).
var CacheDirPerm = fsutil.DirModePrivate

const (
	// DownloadsDir holds downloaded update media inside the cache directory.
	DownloadsDir = "downloads"
	// PartialPattern matches the temp files of interrupted downloads.
	PartialPattern = "dl-*.tmp"
)

var (
	ErrCacheClean     = fmt.Errorf("failed to clean download cache")
	ErrCacheInfo      = fmt.Errorf("failed to inspect download cache")
	ErrCacheDirectory = fmt.Errorf("invalid download cache directory")
)
