package download

import (
	"context"
	"crypto/md5" //nolint:gosec // descriptors still publish md5 sums
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/glorpus-work/upkeep/internal/logger"
	pkgerrors "github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"github.com/glorpus-work/upkeep/pkg/update"
)

// ManagerImpl is an HTTP download manager with checksum verification and
// progress reporting.
type ManagerImpl struct {
	client    *http.Client
	userAgent string
	// maxRetries bounds the retries of transient HTTP failures.
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// DefaultMaxRetries is how often a failed request is retried.
const DefaultMaxRetries = 3

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = time.Minute
	return b
}

// NewManager creates a new download manager with the given timeout and user agent.
func NewManager(timeout time.Duration, userAgent string) *ManagerImpl {
	if userAgent == "" {
		userAgent = "upkeep/1.0"
	}
	return &ManagerImpl{
		client:     &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxRetries: DefaultMaxRetries,
		newBackOff: defaultBackOff,
	}
}

// Fetch downloads a single item and returns the path to the downloaded file.
// An existing file that already satisfies the checksums is reused.
func (m *ManagerImpl) Fetch(ctx context.Context, item Item, opts Options) (string, error) {
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return "", fmt.Errorf("download dir must be absolute: %s: %w", opts.Dir, pkgerrors.ErrInvalidPath)
	}
	if item.URL == nil {
		return "", fmt.Errorf("nil URL: %w", pkgerrors.ErrDownloadFailed)
	}
	if err := os.MkdirAll(opts.Dir, fsutil.DirModeSecure); err != nil {
		return "", pkgerrors.Wrap(err, "could not create download dir")
	}

	filename, err := selectFilename(item)
	if err != nil {
		return "", err
	}
	absPath := filepath.Join(opts.Dir, filename)
	if hasChecksum(item) {
		if ok, _ := verify(absPath, item); ok {
			logger.Debug("Reusing verified download", logger.Fields{"path": absPath})
			emit(opts.Listener, update.DownloadEvent{Type: update.EventStart, Message: "Downloading", Detail: filename})
			emit(opts.Listener, update.DownloadEvent{Type: update.EventEnd, Percent: 100, Detail: absPath})
			return absPath, nil
		}
	}

	body, total, err := m.open(ctx, item)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	if total <= 0 {
		total = item.Size
	}
	emit(opts.Listener, update.DownloadEvent{
		Type:    update.EventStart,
		Message: "Downloading",
		Detail:  fmt.Sprintf("%s (%d bytes)", filename, total),
	})

	tmpPath, err := writeToTemp(&progressReader{r: body, total: total, listener: opts.Listener}, absPath)
	if err != nil {
		emit(opts.Listener, update.DownloadEvent{Type: update.EventEnd, Message: "Failed", Detail: err.Error()})
		return "", err
	}

	if ok, err := verify(tmpPath, item); err != nil || !ok {
		_ = os.Remove(tmpPath)
		if err == nil {
			err = fmt.Errorf("checksum mismatch for %s: %w", item.URL, pkgerrors.ErrFileHashMismatch)
		}
		emit(opts.Listener, update.DownloadEvent{Type: update.EventEnd, Message: "Failed", Detail: err.Error()})
		return "", err
	}

	if err := finalizeFile(tmpPath, absPath); err != nil {
		return "", err
	}
	emit(opts.Listener, update.DownloadEvent{Type: update.EventEnd, Percent: 100, Message: "Downloaded", Detail: absPath})
	return absPath, nil
}

func selectFilename(item Item) (string, error) {
	name := item.Filename
	if name == "" {
		name = path.Base(item.URL.Path)
	}
	if name == "" || name == "." || name == "/" {
		h := sha256.Sum256([]byte(item.URL.String()))
		name = hex.EncodeToString(h[:])
	}
	if name != filepath.Base(name) || name == ".." {
		return "", fmt.Errorf("unsafe file name %q: %w", name, pkgerrors.ErrInvalidPath)
	}
	return name, nil
}

// open returns the artifact body and its length, -1 when unknown.
func (m *ManagerImpl) open(ctx context.Context, item Item) (io.ReadCloser, int64, error) {
	if item.URL.Scheme == "file" {
		f, err := os.Open(item.URL.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", pkgerrors.ErrDownloadFailed, err)
		}
		size := int64(-1)
		if st, err := f.Stat(); err == nil {
			size = st.Size()
		}
		return f, size, nil
	}

	var (
		body io.ReadCloser
		size int64
	)
	operation := func() error {
		b, n, err := m.get(ctx, item)
		if err != nil {
			return err
		}
		body, size = b, n
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Debug("Download failed, retrying", logger.Fields{"url": item.URL.String(), "error": err, "wait": wait.String()})
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(m.newBackOff(), m.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, 0, err
	}
	return body, size, nil
}

// get issues a single request. Failures that a retry cannot fix are
// marked permanent.
func (m *ManagerImpl) get(ctx context.Context, item Item) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL.String(), http.NoBody)
	if err != nil {
		return nil, 0, backoff.Permanent(pkgerrors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("User-Agent", m.userAgent)
	resp, err := m.client.Do(req)
	if err != nil {
		err = fmt.Errorf("%w: %v", pkgerrors.ErrDownloadFailed, err)
		if ctx.Err() != nil {
			return nil, 0, backoff.Permanent(err)
		}
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		err := fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, pkgerrors.ErrDownloadFailed)
		if !retryable(resp.StatusCode) {
			return nil, 0, backoff.Permanent(err)
		}
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

func retryable(status int) bool {
	return status >= http.StatusInternalServerError ||
		status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests
}

func writeToTemp(r io.Reader, absPath string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := os.Rename(tmpPath, absPath); err != nil {
		_ = os.Remove(tmpPath)
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeSecure); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	return nil
}

func hasChecksum(item Item) bool {
	return item.MD5Sum != "" || item.SHA256Sum != ""
}

// verify checks every checksum the item carries. Without checksums any
// readable file passes.
func verify(path string, item Item) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, pkgerrors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()

	md5h := md5.New() //nolint:gosec
	sha := sha256.New()
	if _, err := io.Copy(io.MultiWriter(md5h, sha), f); err != nil {
		return false, pkgerrors.Wrap(err, "hashing")
	}
	return matches(md5h, item.MD5Sum) && matches(sha, item.SHA256Sum), nil
}

func matches(h hash.Hash, wantHex string) bool {
	if wantHex == "" {
		return true
	}
	return hex.EncodeToString(h.Sum(nil)) == normalizeHex(wantHex)
}

func normalizeHex(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func emit(l update.DownloadListener, ev update.DownloadEvent) {
	if l != nil {
		l(ev)
	}
}

// progressReader reports PROGRESS events whenever the whole-percent value
// changes. Nothing is reported when the total is unknown.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	last     int
	listener update.DownloadListener
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.listener != nil && p.total > 0 && n > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.listener(update.DownloadEvent{
				Type:    update.EventProgress,
				Percent: float64(pct),
				Detail:  fmt.Sprintf("%d/%d", p.read, p.total),
			})
		}
	}
	return n, err
}
