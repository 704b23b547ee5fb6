// Package media classifies downloadable installer artifacts by operating
// system, architecture and packaging type, and resolves the best artifact
// for a host from an update descriptor catalog.
package media

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/platform"
)

// OS is the operating system an artifact targets.
type OS int

// Declaration order is both the sort order and the classification order.
const (
	OSLinux OS = iota
	OSWindows
	OSMacOS
	OSUnix
)

// Arch is the CPU architecture an artifact targets.
type Arch int

// ArchXPlatform is the wildcard used for artifacts that bundle a runtime
// able to run on any architecture.
const (
	ArchX86 Arch = iota
	ArchX8664
	ArchARM32
	ArchAArch64
	ArchXPlatform
)

// Type is the packaging of an artifact.
type Type int

const (
	TypeInstaller Type = iota
	TypeRPM
	TypeDEB
	TypeArchive
)

// Patterns are matched against the whole file name.
var (
	osPatterns = map[OS]*regexp.Regexp{
		OSLinux:   fullMatch(`.*-linux-.*\.sh|.*-linux-.*\.zip|.*-linux-.*\.tgz|.*-linux-.*\.tar\.gz|.*\.rpm|.*\.deb`),
		OSWindows: fullMatch(`.*\.msi|.*\.exe|.*-windows-.*\.zip|.*-windows-.*\.tgz|.*-windows-.*\.tar\.gz`),
		OSMacOS:   fullMatch(`.*\.dmg|.*-mac-.*\.zip|.*-macos-.*\.zip|.*-mac-.*\.tgz|.*-macos-.*\.tgz|.*-mac-.*\.tar\.gz|.*-macos-.*\.tar\.gz`),
		OSUnix:    fullMatch(`.*\.sh|.*-unix-.*\.zip|.*-unix-.*\.tgz|.*-unix-.*\.tar\.gz`),
	}
	archPatterns = map[Arch]*regexp.Regexp{
		ArchX86:       fullMatch(`.*-x86-.*`),
		ArchX8664:     fullMatch(`.*-(x64|amd64|x8664|x86_64|x86-64)-.*`),
		ArchARM32:     fullMatch(`.*-(arm.*)-.*`),
		ArchAArch64:   fullMatch(`.*-(aarch64|arm64)-.*`),
		ArchXPlatform: fullMatch(`.*`),
	}
	typePatterns = map[Type]*regexp.Regexp{
		TypeInstaller: fullMatch(`.*\.sh|.*\.exe|.*\.msi|.*\.dmg`),
		TypeRPM:       fullMatch(`.*\.rpm`),
		TypeDEB:       fullMatch(`.*\.deb`),
		TypeArchive:   fullMatch(`.*\.zip|.*\.tgz|.*\.tar\.gz`),
	}

	// archClassifyOrder tests the narrower patterns first: "-x86-64-" also
	// contains "-x86-" and "-arm64-" also satisfies the ARM32 pattern.
	archClassifyOrder = []Arch{ArchX8664, ArchAArch64, ArchX86, ArchARM32, ArchXPlatform}
)

func fullMatch(expr string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + expr + `)$`)
}

// AllOS returns every OS in declaration order.
func AllOS() []OS { return []OS{OSLinux, OSWindows, OSMacOS, OSUnix} }

// AllArch returns every Arch in declaration order.
func AllArch() []Arch { return []Arch{ArchX86, ArchX8664, ArchARM32, ArchAArch64, ArchXPlatform} }

// AllTypes returns every Type in declaration order.
func AllTypes() []Type { return []Type{TypeInstaller, TypeRPM, TypeDEB, TypeArchive} }

// Pattern returns the file name pattern for the OS.
func (o OS) Pattern() *regexp.Regexp { return osPatterns[o] }

// Pattern returns the file name pattern for the architecture.
func (a Arch) Pattern() *regexp.Regexp { return archPatterns[a] }

// Pattern returns the file name pattern for the packaging type.
func (t Type) Pattern() *regexp.Regexp { return typePatterns[t] }

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "LINUX"
	case OSWindows:
		return "WINDOWS"
	case OSMacOS:
		return "MACOS"
	case OSUnix:
		return "UNIX"
	}
	return fmt.Sprintf("OS(%d)", int(o))
}

func (a Arch) String() string {
	switch a {
	case ArchX86:
		return "X86"
	case ArchX8664:
		return "X86_64"
	case ArchARM32:
		return "ARM32"
	case ArchAArch64:
		return "AARCH64"
	case ArchXPlatform:
		return "XPLATFORM"
	}
	return fmt.Sprintf("Arch(%d)", int(a))
}

func (t Type) String() string {
	switch t {
	case TypeInstaller:
		return "INSTALLER"
	case TypeRPM:
		return "RPM"
	case TypeDEB:
		return "DEB"
	case TypeArchive:
		return "ARCHIVE"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseOS parses an OS name as produced by String, case-insensitively.
func ParseOS(s string) (OS, error) {
	for _, o := range AllOS() {
		if strings.EqualFold(o.String(), strings.TrimSpace(s)) {
			return o, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnclassifiedMedia, "unknown os %q", s)
}

// ParseArch parses an architecture name as produced by String, case-insensitively.
func ParseArch(s string) (Arch, error) {
	for _, a := range AllArch() {
		if strings.EqualFold(a.String(), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnclassifiedMedia, "unknown arch %q", s)
}

// ParseType parses a packaging type name as produced by String, case-insensitively.
func ParseType(s string) (Type, error) {
	for _, t := range AllTypes() {
		if strings.EqualFold(t.String(), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnclassifiedMedia, "unknown media type %q", s)
}

// OSFor maps a normalised platform OS onto a media OS. Anything that is not
// windows, darwin or linux lands in the generic unix bucket.
func OSFor(p platform.Platform) OS {
	switch p.OS {
	case platform.OSWindows:
		return OSWindows
	case platform.OSDarwin:
		return OSMacOS
	case platform.OSLinux:
		return OSLinux
	default:
		return OSUnix
	}
}

// ArchFor maps a normalised platform architecture onto a media architecture.
func ArchFor(p platform.Platform) Arch {
	switch p.Arch {
	case platform.ArchAMD64:
		return ArchX8664
	case platform.ArchARM64:
		return ArchAArch64
	case platform.ArchARM:
		return ArchARM32
	case platform.Arch386:
		return ArchX86
	default:
		return ArchXPlatform
	}
}
