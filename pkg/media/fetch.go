package media

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
)

//go:generate mockgen -destination=mocks/media.go . Fetcher

// Fetcher loads an update descriptor from a location.
type Fetcher interface {
	Fetch(ctx context.Context, location *url.URL) (*Descriptor, error)
}

const (
	// DefaultConnectTimeout bounds establishing the connection.
	DefaultConnectTimeout = 20 * time.Second
	// DefaultRequestTimeout bounds the whole descriptor request.
	DefaultRequestTimeout = 2 * time.Minute
)

// HTTPFetcher fetches descriptors over HTTP(S). file:// locations are read
// from disk, which is handy for staging feeds and tests.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher. A zero timeout selects DefaultRequestTimeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if userAgent == "" {
		userAgent = "upkeep/1.0"
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: DefaultConnectTimeout}).DialContext
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout, Transport: transport},
		userAgent: userAgent,
	}
}

// Fetch downloads and parses the descriptor at location.
func (f *HTTPFetcher) Fetch(ctx context.Context, location *url.URL) (*Descriptor, error) {
	if location == nil {
		return nil, errors.Wrap(errors.ErrDescriptorFetch, "no location")
	}
	if location.Scheme == "file" {
		return f.fetchFile(location)
	}

	logger.Debug("Fetching update descriptor", logger.Fields{"url": location.String()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location.String(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", location, errors.ErrDescriptorFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response code for %s. %d: %w", location, resp.StatusCode, errors.ErrDescriptorFetch)
	}
	return Parse(resp.Body)
}

func (f *HTTPFetcher) fetchFile(location *url.URL) (*Descriptor, error) {
	file, err := os.Open(location.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", location, errors.ErrDescriptorFetch, err)
	}
	defer func() { _ = file.Close() }()
	return Parse(file)
}
