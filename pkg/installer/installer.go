// Package installer hands downloaded media over to whatever installs it:
// an installer executable, the system package manager or an archive
// extractor writing straight into the application directory.
package installer

import (
	"context"
	"strings"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/media"
)

//go:generate mockgen -destination=mocks/installer.go . Launcher,Extractor

// Request describes one installation.
type Request struct {
	// MediaPath is the verified download.
	MediaPath string
	// AppDir is the directory of the installation being updated.
	AppDir string
	// UpdatesURL is handed to installers so the new version keeps the same
	// update channel.
	UpdatesURL string
	// Unattended runs the installer without user interaction.
	Unattended bool
	// Console keeps the installer on the terminal instead of a GUI.
	Console bool
	// Env is appended to the installer's environment.
	Env []string
}

// Launcher installs the media of a request and returns its exit code.
// A non-nil error means the installer could not be run at all.
type Launcher interface {
	Launch(ctx context.Context, req Request) (int, error)
}

// Extractor unpacks an archive into a directory.
type Extractor interface {
	ExtractAll(ctx context.Context, archivePath, destDir string) (int, error)
}

// Args returns the installer arguments for a request.
func (r Request) Args() []string {
	var args []string
	if r.Unattended {
		args = append(args, "-q")
	}
	if r.Console {
		args = append(args, "-c")
	}
	if r.UpdatesURL != "" {
		args = append(args, "-VupdatesUrl="+r.UpdatesURL)
	}
	if r.AppDir != "" && r.Unattended {
		args = append(args, "-dir", r.AppDir)
	}
	return args
}

// ForType selects the launcher able to install media of the given type.
func ForType(t media.Type) (Launcher, error) {
	switch t {
	case media.TypeInstaller:
		return NewExecLauncher(), nil
	case media.TypeArchive:
		return NewArchiveLauncher(nil), nil
	case media.TypeRPM:
		return NewPackageLauncher("rpm", "-U"), nil
	case media.TypeDEB:
		return NewPackageLauncher("dpkg", "-i"), nil
	}
	return nil, errors.Wrapf(errors.ErrUnsupported, "no launcher for %s media", t)
}

func isShellScript(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".sh")
}
