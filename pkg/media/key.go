package media

import (
	"cmp"
	"fmt"
	"net/url"

	"github.com/glorpus-work/upkeep/pkg/platform"
)

// Key identifies an artifact by OS, architecture, packaging type and an
// optional variant (normally the file extension). An empty Variant means
// "no variant preference".
type Key struct {
	OS      OS
	Arch    Arch
	Type    Type
	Variant string
}

// HostKey returns the key describing what the given host wants to install.
func HostKey(p platform.Platform, t Type) Key {
	return Key{OS: OSFor(p), Arch: ArchFor(p), Type: t}
}

// Compare orders keys by os, arch, type and then variant. The unset variant
// sorts first.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.OS, o.OS); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Arch, o.Arch); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Type, o.Type); c != 0 {
		return c
	}
	return cmp.Compare(k.Variant, o.Variant)
}

// SameTarget reports whether both keys share os, arch and type, ignoring variant.
func (k Key) SameTarget(o Key) bool {
	return k.OS == o.OS && k.Arch == o.Arch && k.Type == o.Type
}

// WithArch returns a copy of the key with a different architecture.
func (k Key) WithArch(a Arch) Key {
	k.Arch = a
	return k
}

func (k Key) String() string {
	if k.Variant == "" {
		return fmt.Sprintf("%s/%s/%s", k.OS, k.Arch, k.Type)
	}
	return fmt.Sprintf("%s/%s/%s[%s]", k.OS, k.Arch, k.Type, k.Variant)
}

// Media is one downloadable artifact of a release.
type Media struct {
	Key       Key
	Name      string
	URL       *url.URL
	FileSize  int64
	MD5Sum    string // empty when the descriptor carries none
	SHA256Sum string // empty when the descriptor carries none
	Version   string
}

func (m Media) String() string {
	return fmt.Sprintf("%s %s (%s, %d bytes)", m.Name, m.Version, m.Key, m.FileSize)
}
