package installer

import (
	"context"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/archive"
	"github.com/glorpus-work/upkeep/pkg/errors"
)

// ArchiveLauncher installs ARCHIVE media by unpacking it over the
// application directory.
type ArchiveLauncher struct {
	extractor Extractor
}

// NewArchiveLauncher returns an archive launcher. A nil extractor uses
// archive.NewManager.
func NewArchiveLauncher(extractor Extractor) *ArchiveLauncher {
	if extractor == nil {
		extractor = archive.NewManager()
	}
	return &ArchiveLauncher{extractor: extractor}
}

// Launch extracts the media into req.AppDir.
func (l *ArchiveLauncher) Launch(ctx context.Context, req Request) (int, error) {
	if req.AppDir == "" {
		return -1, errors.Wrap(errors.ErrInstallerFailed, "archive install needs an app directory")
	}

	n, err := l.extractor.ExtractAll(ctx, req.MediaPath, req.AppDir)
	if err != nil {
		return 1, errors.Wrapf(errors.ErrInstallerFailed, "extract %s: %v", req.MediaPath, err)
	}
	logger.Info("Extracted update", logger.Fields{"files": n, "dir": req.AppDir})
	return 0, nil
}
