// Package platform detects and normalises the operating system and CPU
// architecture of the running host.
package platform

// Operating systems, spelled as GOOS.
const (
	OSLinux     = "linux"
	OSWindows   = "windows"
	OSDarwin    = "darwin"
	OSFreeBSD   = "freebsd"
	OSOpenBSD   = "openbsd"
	OSNetBSD    = "netbsd"
	OSDragonfly = "dragonfly"
	OSSolaris   = "solaris"
	OSIllumos   = "illumos"
	OSAIX       = "aix"
)

// Architectures, spelled as GOARCH.
const (
	ArchAMD64 = "amd64"
	Arch386   = "386"
	ArchARM   = "arm"
	ArchARM64 = "arm64"
)
