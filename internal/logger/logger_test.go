package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	InitLogger(level, format)
	defer InitLogger("info", FormatText)

	fn()
	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func() { Info("test info message") },
			contains: []string{"test info message", "level=INFO"},
		},
		{
			name:     "debug log with debug level",
			level:    "debug",
			logFn:    func() { Debug("test debug message") },
			contains: []string{"test debug message", "level=DEBUG"},
		},
		{
			name:     "debug log with info level",
			level:    "info",
			logFn:    func() { Debug("test debug message") },
			excludes: []string{"test debug message"},
		},
		{
			name:     "warn with fields",
			level:    "warn",
			logFn:    func() { Warn("deferred", Fields{"app": "demo"}) },
			contains: []string{"deferred", "app=demo"},
		},
		{
			name:     "formatted error",
			level:    "error",
			logFn:    func() { Errorf("failed %d times", 3) },
			contains: []string{"failed 3 times"},
		},
		{
			name:     "success marker",
			level:    "info",
			logFn:    func() { Success("registered") },
			contains: []string{"registered", "status=success"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, out, e)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	out := captureOutput(t, "info", FormatJSON, func() {
		Named("scheduler").Info("scheduled", "delay", "6s")
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &record))
	assert.Equal(t, "scheduled", record["msg"])
	assert.Equal(t, "scheduler", record["component"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestSetLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "upkeep.log")
	require.NoError(t, SetLogFile(path))
	t.Cleanup(func() {
		_ = SetLogFile("")
		InitLogger("info", FormatText)
	})

	InitLogger("info", FormatText)
	Info("written to file", Fields{"app": "demo"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), "app=demo")

	require.NoError(t, SetLogFile("console"))
	InitLogger("info", FormatText)
	Info("not in file")

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "not in file")
}
