// Package phase defines the release channels an application can follow.
package phase

import (
	"fmt"
	"slices"
	"strings"

	"github.com/glorpus-work/upkeep/pkg/errors"
)

// Phase is a release channel. The zero value is Stable.
type Phase int

const (
	Stable Phase = iota
	EA
	Continuous
)

// All returns every phase in declaration order.
func All() []Phase {
	return []Phase{Stable, EA, Continuous}
}

// Reverse returns every phase in reverse declaration order.
func Reverse() []Phase {
	all := All()
	slices.Reverse(all)
	return all
}

// Parse accepts a phase name in any case.
func Parse(s string) (Phase, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STABLE":
		return Stable, nil
	case "EA":
		return EA, nil
	case "CONTINUOUS":
		return Continuous, nil
	}
	return Stable, errors.Wrapf(errors.ErrInvalidPhase, "%q", s)
}

func (p Phase) String() string {
	switch p {
	case Stable:
		return "STABLE"
	case EA:
		return "EA"
	case Continuous:
		return "CONTINUOUS"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Lower is the form substituted for ${phase} in update URLs.
func (p Phase) Lower() string {
	return strings.ToLower(p.String())
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// DefaultForVersion picks the channel an installation of version v should
// follow when none has been chosen. Development and pre-1.0 builds follow
// Continuous.
func DefaultForVersion(v string) Phase {
	if v == "" || strings.HasPrefix(v, "0.") || v == "DEV_VERSION" || strings.Contains(v, "SNAPSHOT") {
		return Continuous
	}
	return Stable
}
