package phase

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"github.com/glorpus-work/upkeep/pkg/version"
)

const (
	// EnvNoContinuous forces the continuous channel off when true.
	EnvNoContinuous = "UPKEEP_NO_CONTINUOUS"
	// EnvContinuous opts into the continuous channel when true.
	EnvContinuous = "UPKEEP_CONTINUOUS"
	// ContinuousMarker is the file in the user data directory that opts
	// into the continuous channel.
	ContinuousMarker = "continuous"
)

// Policy decides whether the Continuous channel is offered.
type Policy struct {
	// Getenv reads environment overrides.
	Getenv func(string) string
	// DeveloperWorkspace reports whether we run from a source checkout.
	DeveloperWorkspace func() bool
	// UserDataDir holds the opt-in marker file. Empty skips the marker check.
	UserDataDir string
	// OptIn is the persisted configuration flag.
	OptIn bool
}

// DefaultPolicy reads the real environment and the default user data directory.
func DefaultPolicy() *Policy {
	p := &Policy{
		Getenv:             os.Getenv,
		DeveloperWorkspace: version.IsDeveloperWorkspace,
	}
	if dir, err := fsutil.GetUserDataDir(); err == nil {
		p.UserDataDir = dir
	} else {
		logger.Debug("Cannot resolve user data directory", logger.Fields{"error": err})
	}
	return p
}

// ContinuousAllowed reports whether Continuous may be offered. The
// EnvNoContinuous override wins over every opt-in.
func (p *Policy) ContinuousAllowed() bool {
	if p == nil {
		return false
	}
	if p.envBool(EnvNoContinuous) {
		return false
	}
	if p.DeveloperWorkspace != nil && p.DeveloperWorkspace() {
		return true
	}
	if p.envBool(EnvContinuous) || p.OptIn {
		return true
	}
	if p.UserDataDir != "" {
		return fsutil.Exists(filepath.Join(p.UserDataDir, ContinuousMarker))
	}
	return false
}

// Available lists the phases a user may choose from.
func (p *Policy) Available() []Phase {
	if p.ContinuousAllowed() {
		return All()
	}
	return []Phase{Stable, EA}
}

func (p *Policy) envBool(key string) bool {
	if p.Getenv == nil {
		return false
	}
	v, err := strconv.ParseBool(p.Getenv(key))
	return err == nil && v
}
