package download

import (
	"context"
	"crypto/md5" //nolint:gosec
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sums(data string) (string, string) {
	m := md5.Sum([]byte(data)) //nolint:gosec
	s := sha256.Sum256([]byte(data))
	return hex.EncodeToString(m[:]), hex.EncodeToString(s[:])
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name       string
		timeout    time.Duration
		userAgent  string
		expectedUA string
	}{
		{
			name:       "default user agent",
			timeout:    time.Second,
			expectedUA: "upkeep/1.0",
		},
		{
			name:       "custom user agent",
			timeout:    2 * time.Second,
			userAgent:  "test-agent/1.0",
			expectedUA: "test-agent/1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.timeout, tt.userAgent)
			require.NotNil(t, m)
			assert.Equal(t, tt.timeout, m.client.Timeout)
			assert.Equal(t, tt.expectedUA, m.userAgent)
		})
	}
}

func TestFetch(t *testing.T) {
	const content = "installer payload"
	md5Sum, shaSum := sums(content)

	tests := []struct {
		name      string
		status    int
		item      Item
		expectErr error
	}{
		{
			name:   "successful download",
			status: http.StatusOK,
			item:   Item{ID: "app"},
		},
		{
			name:   "both checksums verified",
			status: http.StatusOK,
			item:   Item{ID: "app", MD5Sum: md5Sum, SHA256Sum: strings.ToUpper(shaSum)},
		},
		{
			name:      "md5 mismatch",
			status:    http.StatusOK,
			item:      Item{ID: "app", MD5Sum: strings.Repeat("0", 32)},
			expectErr: pkgerrors.ErrFileHashMismatch,
		},
		{
			name:      "sha256 mismatch",
			status:    http.StatusOK,
			item:      Item{ID: "app", MD5Sum: md5Sum, SHA256Sum: strings.Repeat("0", 64)},
			expectErr: pkgerrors.ErrFileHashMismatch,
		},
		{
			name:      "not found",
			status:    http.StatusNotFound,
			item:      Item{ID: "app"},
			expectErr: pkgerrors.ErrDownloadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "upkeep-test", r.Header.Get("User-Agent"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(content))
			}))
			defer server.Close()

			dir := t.TempDir()
			item := tt.item
			item.URL = mustURL(t, server.URL+"/releases/app-linux-x64-1.0.sh")

			path, err := NewManager(5*time.Second, "upkeep-test").Fetch(context.Background(), item, Options{Dir: dir})
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				entries, _ := os.ReadDir(dir)
				assert.Empty(t, entries, "no partial files left behind")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "app-linux-x64-1.0.sh"), path)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
		})
	}
}

func TestFetch_ProgressEvents(t *testing.T) {
	payload := strings.Repeat("x", 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "65536")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	var events []update.DownloadEvent
	opts := Options{Dir: t.TempDir(), Listener: func(ev update.DownloadEvent) { events = append(events, ev) }}

	_, err := NewManager(5*time.Second, "").Fetch(context.Background(), Item{URL: mustURL(t, server.URL+"/big.zip")}, opts)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, update.EventStart, events[0].Type)
	assert.Contains(t, events[0].Detail, "65536 bytes")
	last := events[len(events)-1]
	assert.Equal(t, update.EventEnd, last.Type)
	assert.Equal(t, float64(100), last.Percent)

	prev := -1.0
	for _, ev := range events[1 : len(events)-1] {
		assert.Equal(t, update.EventProgress, ev.Type)
		assert.Greater(t, ev.Percent, prev)
		prev = ev.Percent
	}
	assert.Equal(t, float64(100), prev)
}

func TestFetch_ReusesVerifiedFile(t *testing.T) {
	const content = "cached"
	_, shaSum := sums(content)

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(content))
	}))
	defer server.Close()

	m := NewManager(5*time.Second, "")
	item := Item{URL: mustURL(t, server.URL+"/a.deb"), SHA256Sum: shaSum}
	opts := Options{Dir: t.TempDir()}

	first, err := m.Fetch(context.Background(), item, opts)
	require.NoError(t, err)
	second, err := m.Fetch(context.Background(), item, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_FileURL(t *testing.T) {
	src := filepath.Join(t.TempDir(), "app.rpm")
	require.NoError(t, os.WriteFile(src, []byte("rpm"), 0o644))

	dest := t.TempDir()
	path, err := NewManager(time.Second, "").Fetch(context.Background(), Item{URL: &url.URL{Scheme: "file", Path: src}}, Options{Dir: dest})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "app.rpm"), path)
}

func TestFetch_ErrorHandling(t *testing.T) {
	m := NewManager(time.Second, "")

	_, err := m.Fetch(context.Background(), Item{URL: mustURL(t, "http://localhost/x")}, Options{Dir: "relative"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidPath)

	_, err = m.Fetch(context.Background(), Item{}, Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, pkgerrors.ErrDownloadFailed)

	_, err = m.Fetch(context.Background(), Item{URL: mustURL(t, "http://localhost/x"), Filename: "../escape"}, Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Fetch(ctx, Item{URL: mustURL(t, "http://127.0.0.1:1/x")}, Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, pkgerrors.ErrDownloadFailed)
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name      string
		failWith  int
		failures  int32
		wantCalls int32
		expectErr bool
	}{
		{name: "recovers after server errors", failWith: http.StatusServiceUnavailable, failures: 2, wantCalls: 3},
		{name: "rate limited", failWith: http.StatusTooManyRequests, failures: 1, wantCalls: 2},
		{name: "gives up after max retries", failWith: http.StatusBadGateway, failures: 100, wantCalls: DefaultMaxRetries + 1, expectErr: true},
		{name: "client errors are permanent", failWith: http.StatusForbidden, failures: 100, wantCalls: 1, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(tt.failWith)
					return
				}
				_, _ = w.Write([]byte("payload"))
			}))
			defer server.Close()

			m := NewManager(5*time.Second, "")
			m.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

			_, err := m.Fetch(context.Background(), Item{URL: mustURL(t, server.URL+"/app.sh")}, Options{Dir: t.TempDir()})
			if tt.expectErr {
				assert.ErrorIs(t, err, pkgerrors.ErrDownloadFailed)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestSelectFilename(t *testing.T) {
	name, err := selectFilename(Item{URL: mustURL(t, "https://example.com/")})
	require.NoError(t, err)
	assert.Len(t, name, 64)

	name, err = selectFilename(Item{URL: mustURL(t, "https://example.com/a/b/app.tar.gz?x=1")})
	require.NoError(t, err)
	assert.Equal(t, "app.tar.gz", name)
}
