package media

import (
	"net/url"
	"slices"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
)

// Entry is one raw artifact listed in an update descriptor.
type Entry struct {
	FileName   string
	FileSize   int64
	NewVersion string
	MD5Sum     string
	SHA256Sum  string
	BundledJRE string
}

// Descriptor is a catalog of the artifacts of a release, keyed by Key.
// It is read-only once built.
type Descriptor struct {
	baseURL *url.URL
	media   map[Key]Media
	keys    []Key // sorted by Key.Compare
}

// NewDescriptor classifies entries into a catalog. Entries that cannot be
// classified are skipped with a warning. When two entries classify to the
// same key the later one wins.
func NewDescriptor(baseURL *url.URL, entries []Entry) (*Descriptor, error) {
	d := &Descriptor{
		baseURL: baseURL,
		media:   make(map[Key]Media, len(entries)),
	}
	for _, e := range entries {
		key, err := Classify(e.FileName, e.BundledJRE)
		if err != nil {
			logger.Warn("Skipping descriptor entry", logger.Fields{"file": e.FileName, "reason": err.Error()})
			continue
		}
		ref, err := url.Parse(e.FileName)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrDescriptorParse, "invalid file name %q", e.FileName)
		}
		loc := ref
		if baseURL != nil {
			loc = baseURL.ResolveReference(ref)
		}
		d.put(Media{
			Key:       key,
			Name:      e.FileName,
			URL:       loc,
			FileSize:  e.FileSize,
			MD5Sum:    e.MD5Sum,
			SHA256Sum: e.SHA256Sum,
			Version:   e.NewVersion,
		})
	}
	return d, nil
}

func (d *Descriptor) put(m Media) {
	if _, exists := d.media[m.Key]; !exists {
		idx, _ := slices.BinarySearchFunc(d.keys, m.Key, Key.Compare)
		d.keys = slices.Insert(d.keys, idx, m.Key)
	}
	d.media[m.Key] = m
}

// BaseURL returns the URL artifact names are resolved against.
func (d *Descriptor) BaseURL() *url.URL { return d.baseURL }

// Len returns the number of catalogued artifacts.
func (d *Descriptor) Len() int { return len(d.keys) }

// Media returns every artifact in key order.
func (d *Descriptor) Media() []Media {
	out := make([]Media, 0, len(d.keys))
	for _, k := range d.keys {
		out = append(out, d.media[k])
	}
	return out
}

// Get returns the artifact stored under exactly this key.
func (d *Descriptor) Get(key Key) (Media, bool) {
	m, ok := d.media[key]
	return m, ok
}

// Find looks the key up exactly. When that misses and the key carries no
// variant, the first artifact in key order with the same os, arch and type
// is returned instead.
func (d *Descriptor) Find(key Key) (Media, bool) {
	if m, ok := d.media[key]; ok {
		return m, true
	}
	if key.Variant != "" {
		return Media{}, false
	}
	for _, k := range d.keys {
		if k.SameTarget(key) {
			return d.media[k], true
		}
	}
	return Media{}, false
}

// Best resolves the artifact for a requested key: exact match, then any
// variant, then the cross-platform architecture. A miss is reported as
// false, never as an error.
func (d *Descriptor) Best(key Key) (Media, bool) {
	if m, ok := d.Find(key); ok {
		return m, true
	}
	if key.Arch == ArchXPlatform {
		return Media{}, false
	}
	fallback := key.WithArch(ArchXPlatform)
	fallback.Variant = ""
	return d.Find(fallback)
}
