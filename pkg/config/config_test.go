package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Settings.HTTPTimeout)
	assert.Equal(t, DefaultNonDeferredDelay, cfg.Settings.NonDeferredDelay)
	assert.Equal(t, phase.Stable, cfg.Phase())
	assert.NotEmpty(t, cfg.Settings.UserDataDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `settings:
  log_level: debug
  default_phase: ea
  allow_continuous: true
  non_deferred_delay: 30s
  cache_dir: /var/cache/upkeep
  platform:
    os: linux
    arch: aarch64`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, phase.EA, cfg.Phase())
	assert.True(t, cfg.Settings.AllowContinuous)
	assert.Equal(t, 30*time.Second, cfg.Settings.NonDeferredDelay)
	assert.Equal(t, filepath.Join("/var/cache/upkeep", "downloads"), cfg.DownloadDir())
	assert.Equal(t, platform.Platform{OS: platform.OSLinux, Arch: platform.ArchARM64}, cfg.Platform())

	// Defaults fill in what the file leaves out.
	assert.Equal(t, DefaultDescriptorTimeout, cfg.Settings.DescriptorTimeout)
	assert.Equal(t, "text", cfg.Settings.OutputFormat)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Settings.LogLevel, cfg.Settings.LogLevel)

	_, err = LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("settings: [not a map"))
	assert.ErrorIs(t, err, errors.ErrConfigParse)

	_, err = LoadConfigFromReader(strings.NewReader("settings:\n  default_phase: nightly\n"))
	assert.ErrorIs(t, err, errors.ErrConfigValidation)
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.Platform.OS = "linux"
	cfg.Settings.Platform.Arch = "amd64"

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Settings, loaded.Settings)

	assert.ErrorIs(t, cfg.SaveConfig(""), errors.ErrEmptyConfigPath)
}

func TestValidateConfig(t *testing.T) {
	withSettings := func(mut func(*Settings)) *Config {
		cfg := DefaultConfig()
		mut(&cfg.Settings)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", config: DefaultConfig()},
		{name: "os alias", config: withSettings(func(s *Settings) { s.Platform.OS = "macos" })},
		{name: "nil config", config: nil, wantErr: true, errMsg: "invalid configuration"},
		{name: "invalid OS", config: withSettings(func(s *Settings) { s.Platform.OS = "plan9" }), wantErr: true, errMsg: "invalid platform os"},
		{name: "invalid Arch", config: withSettings(func(s *Settings) { s.Platform.Arch = "mips" }), wantErr: true, errMsg: "invalid platform arch"},
		{name: "negative timeout", config: withSettings(func(s *Settings) { s.HTTPTimeout = -time.Second }), wantErr: true, errMsg: "negative"},
		{name: "bad phase", config: withSettings(func(s *Settings) { s.DefaultPhase = "beta" }), wantErr: true, errMsg: "default_phase"},
		{name: "bad format", config: withSettings(func(s *Settings) { s.OutputFormat = "xml" }), wantErr: true, errMsg: "output format"},
		{name: "bad level", config: withSettings(func(s *Settings) { s.LogLevel = "loud" }), wantErr: true, errMsg: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrConfigValidation)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetSetValue(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetValue("default_phase", "continuous"))
	require.NoError(t, cfg.SetValue("non_deferred_delay", "1m"))
	require.NoError(t, cfg.SetValue("updates_disabled", "true"))
	require.NoError(t, cfg.SetValue("platform.arch", "x86_64"))

	v, err := cfg.GetValue("default_phase")
	require.NoError(t, err)
	assert.Equal(t, "CONTINUOUS", v)
	v, err = cfg.GetValue("non_deferred_delay")
	require.NoError(t, err)
	assert.Equal(t, "1m0s", v)
	assert.True(t, cfg.Settings.UpdatesDisabled)
	assert.Equal(t, platform.ArchAMD64, cfg.Platform().Arch)

	assert.ErrorIs(t, cfg.SetValue("updates_disabled", "maybe"), errors.ErrConfigValidation)
	assert.ErrorIs(t, cfg.SetValue("default_phase", "nightly"), errors.ErrConfigValidation)
	assert.ErrorIs(t, cfg.SetValue("nope", "1"), errors.ErrUnknownConfigKey)
	_, err = cfg.GetValue("nope")
	assert.ErrorIs(t, err, errors.ErrUnknownConfigKey)
}

func TestToMapCoversKeys(t *testing.T) {
	m := DefaultConfig().ToMap()
	assert.Len(t, m, len(Keys()))
	for _, k := range Keys() {
		assert.Contains(t, m, k)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Equal(t, fsutil.AppName, filepath.Base(filepath.Dir(path)))
}
