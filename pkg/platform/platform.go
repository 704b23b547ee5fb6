package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform represents a host with a normalised OS and architecture.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// currentPlatformFunc allows tests to substitute the detected host.
var currentPlatformFunc = func() Platform {
	return Platform{
		OS:   NormalizeOS(runtime.GOOS),
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

// CurrentPlatform returns the current platform (OS and architecture)
func CurrentPlatform() Platform {
	return currentPlatformFunc()
}

// Resolve returns the current platform with any non-empty override applied.
func Resolve(osOverride, archOverride string) Platform {
	p := CurrentPlatform()
	if strings.TrimSpace(osOverride) != "" {
		p.OS = NormalizeOS(osOverride)
	}
	if strings.TrimSpace(archOverride) != "" {
		p.Arch = NormalizeArch(archOverride)
	}
	return p
}

// String returns a string representation of the platform
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// IsUnix reports whether the OS is a unix other than linux or darwin.
func (p Platform) IsUnix() bool {
	switch p.OS {
	case OSFreeBSD, OSOpenBSD, OSNetBSD, OSDragonfly, OSSolaris, OSIllumos, OSAIX:
		return true
	}
	return false
}

// NormalizeOS normalizes OS names to the GOOS spelling.
func NormalizeOS(os string) string {
	os = strings.ToLower(strings.TrimSpace(os))
	switch os {
	case "macos", "mac", "osx", "darwin":
		return OSDarwin
	case "win", "windows":
		return OSWindows
	default:
		return os
	}
}

// NormalizeArch normalizes architecture names to the GOARCH spelling.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	switch {
	case arch == "x86_64" || arch == "x64" || arch == "x86-64" || arch == "ia64":
		return ArchAMD64
	case arch == "x86" || arch == "i386" || arch == "i486" || arch == "i586" || arch == "i686":
		return Arch386
	case arch == "aarch64" || arch == "arm64":
		return ArchARM64
	case arch == "aarch32" || strings.HasPrefix(arch, "armv") || arch == "arm":
		return ArchARM
	default:
		return arch
	}
}
