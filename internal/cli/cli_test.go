package cli

import (
	"bytes"
	"testing"

	"github.com/glorpus-work/upkeep/pkg/update"
	"github.com/kardianos/service"
	"github.com/stretchr/testify/assert"
)

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	listener := progressPrinter(&buf)

	listener(update.DownloadEvent{Type: update.EventStart, Message: "Downloading", Detail: "app-2.0.0.sh"})
	for _, p := range []float64{1, 5, 12, 15, 100} {
		listener(update.DownloadEvent{Type: update.EventProgress, Percent: p})
	}
	listener(update.DownloadEvent{Type: update.EventEnd, Percent: 100, Message: "Download complete"})

	assert.Equal(t, "Downloading app-2.0.0.sh\n    1%\n   12%\n  100%\nDownload complete\n", buf.String())
}

func TestServiceConfig(t *testing.T) {
	path := "/etc/upkeep/config.yaml"
	old := ConfigPath
	ConfigPath = &path
	t.Cleanup(func() { ConfigPath = old })

	cfg := serviceConfig([]string{"app1", "app2"})

	assert.Equal(t, ServiceName, cfg.Name)
	assert.Equal(t, []string{"service", "run", "--config", path, "app1", "app2"}, cfg.Arguments)
}

func TestServiceConfig_NoConfigPath(t *testing.T) {
	old := ConfigPath
	ConfigPath = nil
	t.Cleanup(func() { ConfigPath = old })

	assert.Equal(t, []string{"service", "run"}, serviceConfig(nil).Arguments)
}

func TestServiceStatusString(t *testing.T) {
	assert.Equal(t, "running", serviceStatusString(service.StatusRunning))
	assert.Equal(t, "stopped", serviceStatusString(service.StatusStopped))
	assert.Equal(t, "not installed", serviceStatusString(service.StatusUnknown))
}

func TestWatchedApps_ExplicitIDs(t *testing.T) {
	ids, err := watchedApps([]string{"a", "b"}, StrategyDescriptor)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}
