package download

import (
	"context"
	"net/url"

	"github.com/glorpus-work/upkeep/pkg/update"
)

//go:generate mockgen -destination=mocks/download.go . Manager

// Manager downloads release artifacts and verifies their integrity.
type Manager interface {
	// Fetch downloads item into opts.Dir and returns the absolute local path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)
}

// Item is one remote artifact.
type Item struct {
	ID        string   // used in progress messages
	URL       *url.URL // http(s) or file URL
	Size      int64    // expected size in bytes; 0 when unknown
	MD5Sum    string   // optional hex MD5, verified when set
	SHA256Sum string   // optional hex SHA-256, verified when set
	Filename  string   // optional local name; derived from the URL otherwise
}

// Options control a download.
type Options struct {
	Dir string // destination directory. Must be absolute.
	// Listener receives START, PROGRESS and END events. Optional.
	Listener update.DownloadListener
}
