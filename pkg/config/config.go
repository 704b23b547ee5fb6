// Package config loads and saves the upkeep settings file. Settings cover
// network timeouts, logging, where registrations and downloads live, and
// the defaults the update service starts from.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/upkeep/pkg/cache"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/platform"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// PlatformConfig overrides host detection when choosing media.
type PlatformConfig struct {
	// OS overrides the target operating system (e.g., "windows", "linux", "darwin")
	// If empty, the system will auto-detect the current OS
	OS string `yaml:"os,omitempty"`

	// Arch overrides the target architecture (e.g., "amd64", "arm64", "386")
	// If empty, the system will auto-detect the current architecture
	Arch string `yaml:"arch,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Network settings
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	DescriptorTimeout time.Duration `yaml:"descriptor_timeout"`
	UserAgent         string        `yaml:"user_agent,omitempty"`

	// Storage settings
	UserDataDir   string `yaml:"user_data_dir,omitempty"`
	SystemDataDir string `yaml:"system_data_dir,omitempty"`
	CacheDir      string `yaml:"cache_dir,omitempty"` // downloads land in <cache_dir>/downloads

	// Update settings
	DefaultPhase     string        `yaml:"default_phase"`
	UpdatesDisabled  bool          `yaml:"updates_disabled"`
	AllowContinuous  bool          `yaml:"allow_continuous"`
	NonDeferredDelay time.Duration `yaml:"non_deferred_delay"`

	// Platform settings
	Platform PlatformConfig `yaml:"platform,omitempty"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	ColorOutput  bool   `yaml:"color_output"`
	LogLevel     string `yaml:"log_level"`          // error, warn, info, debug
	LogFile      string `yaml:"log_file,omitempty"` // rotated log file, stderr when empty
}

// Default configuration values.
const (
	// DefaultHTTPTimeout bounds media downloads.
	DefaultHTTPTimeout = 30 * time.Minute

	// DefaultDescriptorTimeout bounds fetching an update descriptor.
	DefaultDescriptorTimeout = 2 * time.Minute

	// DefaultNonDeferredDelay is the delay before the first automatic check.
	DefaultNonDeferredDelay = 6 * time.Second

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	userDataDir, err := fsutil.GetUserDataDir()
	if err != nil {
		userDataDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(userDataDir, "cache")
	}

	return &Config{
		Settings: Settings{
			HTTPTimeout:       DefaultHTTPTimeout,
			DescriptorTimeout: DefaultDescriptorTimeout,
			UserAgent:         fsutil.AppName + "/1.0",
			UserDataDir:       userDataDir,
			SystemDataDir:     fsutil.GetSystemDataDir(),
			CacheDir:          cacheDir,
			DefaultPhase:      phase.Stable.String(),
			NonDeferredDelay:  DefaultNonDeferredDelay,
			OutputFormat:      "text",
			ColorOutput:       true,
			LogLevel:          "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig atomically writes the configuration to path.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(absPath, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return buf.Bytes(), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validatePlatform(c.Settings.Platform); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validatePlatform(p PlatformConfig) error {
	if p.OS != "" {
		switch platform.NormalizeOS(p.OS) {
		case platform.OSWindows, platform.OSLinux, platform.OSDarwin,
			platform.OSFreeBSD, platform.OSOpenBSD, platform.OSNetBSD:
		default:
			return errors.Wrapf(errors.ErrConfigValidation, "invalid platform os %q", p.OS)
		}
	}
	if p.Arch != "" {
		switch platform.NormalizeArch(p.Arch) {
		case platform.ArchAMD64, platform.Arch386, platform.ArchARM, platform.ArchARM64:
		default:
			return errors.Wrapf(errors.ErrConfigValidation, "invalid platform arch %q", p.Arch)
		}
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 || s.DescriptorTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "timeouts cannot be negative")
	}
	if s.NonDeferredDelay < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "non_deferred_delay cannot be negative")
	}
	if _, err := phase.Parse(s.DefaultPhase); err != nil {
		return errors.Wrapf(errors.ErrConfigValidation, "default_phase: %v", err)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid output format %q", s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q", s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Phase returns the configured default phase, STABLE when unparsable.
func (c *Config) Phase() phase.Phase {
	p, err := phase.Parse(c.Settings.DefaultPhase)
	if err != nil {
		return phase.Stable
	}
	return p
}

// Platform returns the host platform with the configured overrides applied.
func (c *Config) Platform() platform.Platform {
	return platform.Resolve(c.Settings.Platform.OS, c.Settings.Platform.Arch)
}

// DownloadDir returns where media downloads are stored.
func (c *Config) DownloadDir() string {
	return filepath.Join(c.Settings.CacheDir, cache.DownloadsDir)
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.DescriptorTimeout == 0 {
		c.Settings.DescriptorTimeout = defaults.Settings.DescriptorTimeout
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.Settings.UserAgent
	}
	if c.Settings.UserDataDir == "" {
		c.Settings.UserDataDir = defaults.Settings.UserDataDir
	}
	if c.Settings.SystemDataDir == "" {
		c.Settings.SystemDataDir = defaults.Settings.SystemDataDir
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.DefaultPhase == "" {
		c.Settings.DefaultPhase = defaults.Settings.DefaultPhase
	}
	if c.Settings.NonDeferredDelay == 0 {
		c.Settings.NonDeferredDelay = defaults.Settings.NonDeferredDelay
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
