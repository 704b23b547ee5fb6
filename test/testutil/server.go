// Package testutil serves update feeds and writes throwaway configuration
// for integration tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glorpus-work/upkeep/internal/logger"
)

// DescriptorFile is the descriptor name inside every phase directory.
const DescriptorFile = "updates.xml"

// Media is one artifact published in a feed.
type Media struct {
	FileName string
	Version  string
	Content  string
}

// TestServer serves a feed directory over HTTP.
type TestServer struct {
	Server *httptest.Server
	URL    string
	Dir    string
}

// NewTestServer creates a started test server that serves files from dir.
// It is closed when the test ends.
func NewTestServer(t *testing.T, dir string) *TestServer {
	t.Helper()
	server := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(server.Close)

	return &TestServer{
		Server: server,
		URL:    server.URL,
		Dir:    dir,
	}
}

// UpdatesURL returns the templated descriptor URL of the served feed.
func (ts *TestServer) UpdatesURL() string {
	return ts.URL + "/${phase}/" + DescriptorFile
}

// WriteFeed writes media and a descriptor listing them into
// <root>/<phase>. baseURL is the URL the phase directory is served from.
func WriteFeed(t *testing.T, root, phaseName, baseURL string, media ...Media) string {
	t.Helper()
	dir := filepath.Join(root, phaseName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create feed dir: %v", err)
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "<updateDescriptor baseUrl=%q>\n", strings.TrimSuffix(baseURL, "/")+"/")
	for _, m := range media {
		if err := os.WriteFile(filepath.Join(dir, m.FileName), []byte(m.Content), 0o644); err != nil {
			t.Fatalf("Failed to write media %s: %v", m.FileName, err)
		}
		fmt.Fprintf(&doc, "  <entry fileName=%q fileSize=\"%d\" newVersion=%q/>\n", m.FileName, len(m.Content), m.Version)
	}
	doc.WriteString("</updateDescriptor>\n")

	path := filepath.Join(dir, DescriptorFile)
	if err := os.WriteFile(path, []byte(doc.String()), 0o644); err != nil {
		t.Fatalf("Failed to write descriptor: %v", err)
	}
	logger.Debugf("Wrote feed with %d media to %s", len(media), path)
	return path
}

// SetupTestConfig writes a configuration whose data and cache directories
// live below root, pinned to linux/amd64. It returns the config path.
func SetupTestConfig(t *testing.T, root string) string {
	t.Helper()

	configStr := fmt.Sprintf(`settings:
  user_data_dir: %s
  system_data_dir: %s
  cache_dir: %s
  default_phase: stable
  log_level: error
  platform:
    os: linux
    arch: amd64
`, filepath.Join(root, "user"), filepath.Join(root, "system"), filepath.Join(root, "cache"))

	configPath := filepath.Join(root, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configStr), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}
