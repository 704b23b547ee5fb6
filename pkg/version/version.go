// Package version detects the installed version of an application and
// compares release versions.
package version

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
)

const (
	// DevVersion is reported when no version source is available.
	DevVersion = "DEV_VERSION"

	// EnvDevVersion overrides the detected version.
	EnvDevVersion = "UPKEEP_DEV_VERSION"
	// EnvDevBuildDate overrides the build date reported with EnvDevVersion.
	EnvDevBuildDate = "UPKEEP_DEV_BUILD_DATE"

	// AnyMedia matches the installer params of any installed media.
	AnyMedia = "*"

	installerParamsDir  = ".install4j"
	installerParamsFile = "i4jparams.conf"
	workspaceMarker     = "pom.xml"
	snapshotSuffix      = "-SNAPSHOT"
)

// Details is a detected version with an optional build date.
type Details struct {
	Version   string
	BuildDate string
}

// Cache remembers detected versions per group and artifact.
type Cache interface {
	Get(key string) (Details, bool)
	Put(key string, d Details)
}

// MemoryCache is a Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Details
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Details)}
}

func (c *MemoryCache) Get(key string) (Details, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[key]
	return d, ok
}

func (c *MemoryCache) Put(key string, d Details) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = d
}

// Detector resolves the version of an installed application from, in
// order: the developer override environment, the cache, the installer
// params file in InstallDir, a pom.xml in WorkDir, and finally DevVersion.
type Detector struct {
	Cache      Cache
	Getenv     func(string) string
	InstallDir string
	WorkDir    string
	// MediaPrefix restricts the installer params file to media whose name
	// starts with "<MediaPrefix>-". AnyMedia accepts all.
	MediaPrefix string
	Now         func() time.Time
}

// NewDetector returns a Detector rooted at dir for both the installation
// and the workspace lookups.
func NewDetector(dir string) *Detector {
	return &Detector{
		Cache:       NewMemoryCache(),
		Getenv:      os.Getenv,
		InstallDir:  dir,
		WorkDir:     dir,
		MediaPrefix: AnyMedia,
		Now:         time.Now,
	}
}

// Version is shorthand for Details(group, artifact).Version.
func (d *Detector) Version(group, artifact string) string {
	return d.Details(group, artifact).Version
}

// Details detects the version of group:artifact.
func (d *Detector) Details(group, artifact string) Details {
	if v := d.getenv(EnvDevVersion); v != "" {
		date := d.getenv(EnvDevBuildDate)
		if date == "" {
			date = d.now().Format(time.DateOnly)
		}
		return Details{Version: v, BuildDate: date}
	}

	key := group + ":" + artifact
	if d.Cache != nil {
		if cached, ok := d.Cache.Get(key); ok {
			return cached
		}
	}

	detected, ok := d.fromInstallerParams()
	if !ok {
		detected, ok = d.fromWorkspace(group, artifact)
	}
	if !ok {
		detected = Details{Version: DevVersion}
	}

	// Snapshots are treated as build zero.
	if strings.HasSuffix(detected.Version, snapshotSuffix) {
		detected.Version = strings.TrimSuffix(detected.Version, snapshotSuffix) + "-0"
	}

	if d.Cache != nil {
		d.Cache.Put(key, detected)
	}
	return detected
}

type installerParams struct {
	General struct {
		MediaName          string `xml:"mediaName,attr"`
		ApplicationVersion string `xml:"applicationVersion,attr"`
	} `xml:"general"`
}

func (d *Detector) fromInstallerParams() (Details, bool) {
	path := filepath.Join(d.InstallDir, installerParamsDir, installerParamsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return Details{}, false
	}

	var params installerParams
	if err := xml.Unmarshal(data, &params); err != nil {
		logger.Debug("Ignoring unreadable installer params", logger.Fields{"path": path, "error": err})
		return Details{}, false
	}

	prefix := d.MediaPrefix
	if prefix == "" {
		prefix = AnyMedia
	}
	if prefix != AnyMedia && !strings.HasPrefix(params.General.MediaName, prefix+"-") {
		return Details{}, false
	}
	if params.General.ApplicationVersion == "" {
		return Details{}, false
	}
	return Details{Version: params.General.ApplicationVersion}, true
}

type pomProject struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

func (d *Detector) fromWorkspace(group, artifact string) (Details, bool) {
	data, err := os.ReadFile(filepath.Join(d.WorkDir, workspaceMarker))
	if err != nil {
		return Details{}, false
	}

	var pom pomProject
	if err := xml.Unmarshal(data, &pom); err != nil {
		return Details{}, false
	}
	if pom.GroupID != group || pom.ArtifactID != artifact || pom.Version == "" {
		return Details{}, false
	}
	return Details{Version: pom.Version}, true
}

func (d *Detector) getenv(key string) string {
	if d.Getenv == nil {
		return ""
	}
	return d.Getenv(key)
}

func (d *Detector) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// IsDeveloperWorkspace reports whether the working directory is a source
// checkout rather than an installation.
func IsDeveloperWorkspace() bool {
	return fsutil.Exists(workspaceMarker)
}
