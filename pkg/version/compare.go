package version

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Compare returns -1, 0 or 1 as a is older than, equal to or newer than b.
// Versions that do not parse are compared as plain strings.
func Compare(a, b string) int {
	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}

// IsNewer reports whether candidate is a newer release than current. An
// empty candidate is never newer. A development build is always older than
// a real release.
func IsNewer(candidate, current string) bool {
	if candidate == "" {
		return false
	}
	if current == "" || current == DevVersion {
		return candidate != current
	}
	return Compare(candidate, current) > 0
}

// Satisfies reports whether v meets a go-version constraint such as ">= 1.2".
func Satisfies(v, constraint string) bool {
	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return false
	}
	parsed, err := goversion.NewVersion(v)
	if err != nil {
		return false
	}
	return c.Check(parsed)
}
