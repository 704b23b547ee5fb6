// Package updater provides the update.Updater strategies upkeep ships with.
package updater

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/download"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"github.com/glorpus-work/upkeep/pkg/hook"
	"github.com/glorpus-work/upkeep/pkg/installer"
	"github.com/glorpus-work/upkeep/pkg/media"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/platform"
	"github.com/glorpus-work/upkeep/pkg/telemetry"
	"github.com/glorpus-work/upkeep/pkg/update"
	"github.com/glorpus-work/upkeep/pkg/version"
)

// Config wires a DescriptorUpdater.
type Config struct {
	AppID  string
	AppDir string
	// Packaging is the media type installed for this app.
	Packaging media.Type
	// Context supplies the current phase and version.
	Context update.AppContext
	// Locate resolves the descriptor URL for a phase.
	Locate func(p phase.Phase) (*url.URL, error)

	Fetcher    media.Fetcher
	Downloader download.Manager
	// Launcher installs the media. Nil picks installer.ForType per media.
	Launcher installer.Launcher
	// Hooks runs the app's pre/post update scripts. Optional.
	Hooks    hook.HookManager
	Platform platform.Platform
	// DownloadDir receives the media. Defaults to <user data>/downloads.
	DownloadDir string

	Unattended bool
	Console    bool
	// OnExit receives the installer's exit code after a successful install.
	OnExit func(code int)
	// Record journals UPDATE_CHECK and UPDATE events. Optional.
	Record func(kind telemetry.EventType, description string)
}

// DescriptorUpdater checks an update descriptor feed and installs the best
// media for this host.
type DescriptorUpdater struct {
	cfg Config

	mu       sync.Mutex
	listener update.DownloadListener
}

// NewDescriptorUpdater validates cfg and fills in defaults.
func NewDescriptorUpdater(cfg Config) (*DescriptorUpdater, error) {
	if cfg.Context == nil || cfg.Locate == nil {
		return nil, errors.Wrap(errors.ErrInvalidApp, "updater needs an app context and a descriptor location")
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = media.NewHTTPFetcher(0, "")
	}
	if cfg.Downloader == nil {
		cfg.Downloader = download.NewManager(0, "")
	}
	if cfg.Platform == (platform.Platform{}) {
		cfg.Platform = platform.CurrentPlatform()
	}
	if cfg.DownloadDir == "" {
		dir, err := fsutil.GetUserDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DownloadDir = filepath.Join(dir, "downloads")
	}
	return &DescriptorUpdater{cfg: cfg}, nil
}

// SetListener routes download progress, typically to Service.FireDownload.
func (u *DescriptorUpdater) SetListener(l update.DownloadListener) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listener = l
}

func (u *DescriptorUpdater) fire(ev update.DownloadEvent) {
	u.mu.Lock()
	l := u.listener
	u.mu.Unlock()
	if l != nil {
		l(ev)
	}
}

// Resolve fetches the descriptor for the app's phase and returns the media
// this host would install. ok is false when the feed offers nothing for it.
func (u *DescriptorUpdater) Resolve(ctx context.Context) (m media.Media, ok bool, err error) {
	p := u.cfg.Context.Phase()
	location, err := u.cfg.Locate(p)
	if err != nil {
		return media.Media{}, false, err
	}

	logger.Info("Checking for updates", logger.Fields{
		"app":     u.cfg.AppID,
		"version": u.cfg.Context.Version(),
		"phase":   p.String(),
		"url":     location.String(),
	})
	desc, err := u.cfg.Fetcher.Fetch(ctx, location)
	if err != nil {
		return media.Media{}, false, err
	}

	key := media.HostKey(u.cfg.Platform, u.cfg.Packaging)
	m, ok = desc.Best(key)
	if !ok {
		logger.Info("No media for this platform", logger.Fields{"app": u.cfg.AppID, "key": key.String()})
	}
	return m, ok, nil
}

// Update implements update.Updater.
func (u *DescriptorUpdater) Update(ctx context.Context, checkOnly bool) (string, error) {
	m, ok, err := u.Resolve(ctx)
	if err != nil || !ok {
		return "", err
	}

	current := u.cfg.Context.Version()
	if !version.IsNewer(m.Version, current) {
		logger.Info("No update needed", logger.Fields{"app": u.cfg.AppID, "current": current, "available": m.Version})
		u.record(telemetry.EventUpdateCheck, "up to date at "+current)
		return "", nil
	}

	logger.Info("Update available", logger.Fields{"app": u.cfg.AppID, "current": current, "available": m.Version})
	if checkOnly {
		u.record(telemetry.EventUpdateCheck, m.Version+" available")
		return m.Version, nil
	}

	if err := u.install(ctx, m, current); err != nil {
		return "", err
	}
	u.record(telemetry.EventUpdate, current+" -> "+m.Version)
	return m.Version, nil
}

func (u *DescriptorUpdater) install(ctx context.Context, m media.Media, current string) error {
	path, err := u.cfg.Downloader.Fetch(ctx, download.Item{
		ID:        u.cfg.AppID,
		URL:       m.URL,
		Size:      m.FileSize,
		MD5Sum:    m.MD5Sum,
		SHA256Sum: m.SHA256Sum,
		Filename:  m.Name,
	}, download.Options{Dir: u.cfg.DownloadDir, Listener: u.fire})
	if err != nil {
		return err
	}

	hookCtx := hook.HookContext{
		AppID:          u.cfg.AppID,
		CurrentVersion: current,
		NewVersion:     m.Version,
		AppDir:         u.cfg.AppDir,
		MediaPath:      path,
	}
	if u.cfg.Hooks != nil {
		if err := u.cfg.Hooks.Execute(ctx, hook.PreUpdate, hookCtx); err != nil {
			return err
		}
	}

	launcher := u.cfg.Launcher
	if launcher == nil {
		if launcher, err = installer.ForType(m.Key.Type); err != nil {
			return err
		}
	}

	logger.Info("Executing installer", logger.Fields{"app": u.cfg.AppID, "media": path})
	updatesURL := ""
	if loc, err := u.cfg.Locate(u.cfg.Context.Phase()); err == nil {
		updatesURL = loc.String()
	}
	code, err := launcher.Launch(ctx, installer.Request{
		MediaPath:  path,
		AppDir:     u.cfg.AppDir,
		UpdatesURL: updatesURL,
		Unattended: u.cfg.Unattended,
		Console:    u.cfg.Console,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return errors.Wrapf(errors.ErrInstallerFailed, "installer exited with error code %d", code)
	}

	if u.cfg.Hooks != nil {
		if err := u.cfg.Hooks.Execute(ctx, hook.PostUpdate, hookCtx); err != nil {
			logger.Error("Post-update hook failed", logger.Fields{"app": u.cfg.AppID, "error": err})
		}
	}

	if u.cfg.OnExit != nil {
		u.cfg.OnExit(code)
	}
	return nil
}

func (u *DescriptorUpdater) record(kind telemetry.EventType, description string) {
	if u.cfg.Record != nil {
		u.cfg.Record(kind, description)
	}
}
