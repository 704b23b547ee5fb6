package media

import (
	"regexp"
	"strings"

	"github.com/glorpus-work/upkeep/pkg/errors"
)

var linuxJREHint = regexp.MustCompile(`^linux-.*$`)

// Variant derives the variant of a file name from its extension. Compressed
// tarballs keep both segments, so "app.tar.gz" yields "tar.gz".
func Variant(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	variant := fileName[idx+1:]
	if (variant == "gz" || variant == "bz") && idx > 0 {
		if prev := strings.LastIndex(fileName[:idx], "."); prev != -1 {
			variant = fileName[prev+1:]
		}
	}
	return variant
}

// Classify derives the key of an artifact from its file name. bundledJRE is
// the platform of the runtime shipped inside the artifact; a linux runtime
// upgrades a generic unix classification to linux.
func Classify(fileName, bundledJRE string) (Key, error) {
	var (
		key   = Key{Variant: Variant(fileName)}
		found bool
	)

	for _, t := range AllTypes() {
		if t.Pattern().MatchString(fileName) {
			key.Type, found = t, true
			break
		}
	}
	if !found {
		return Key{}, errors.Wrapf(errors.ErrUnclassifiedMedia, "%s doesn't match any media type", fileName)
	}

	found = false
	for _, o := range AllOS() {
		if o.Pattern().MatchString(fileName) {
			key.OS, found = o, true
			break
		}
	}
	if !found {
		return Key{}, errors.Wrapf(errors.ErrUnclassifiedMedia, "%s doesn't match any OS", fileName)
	}

	key.Arch = ArchXPlatform
	for _, a := range archClassifyOrder {
		if a.Pattern().MatchString(fileName) {
			key.Arch = a
			break
		}
	}

	if key.OS == OSUnix && linuxJREHint.MatchString(bundledJRE) {
		key.OS = OSLinux
	}

	return key, nil
}
