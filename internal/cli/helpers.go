package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/config"
	"github.com/glorpus-work/upkeep/pkg/registry"
	"github.com/glorpus-work/upkeep/pkg/telemetry"
	"github.com/spf13/cobra"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// loadConfig loads the configuration and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if NoColor != nil && *NoColor {
		cfg.Settings.ColorOutput = false
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// InitLogging configures the process logger from the config file and flags.
func InitLogging() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return initLogger(cfg, cfg.Settings.LogFile)
}

func initLogger(cfg *config.Config, logFile string) error {
	if err := logger.SetLogFile(logFile); err != nil {
		return err
	}
	format := logger.FormatText
	if cfg.Settings.OutputFormat == OutputJSON {
		format = logger.FormatJSON
	}
	logger.InitLogger(cfg.Settings.LogLevel, format)
	return nil
}

// openRegistry opens the user and system registries named in cfg. The
// system registry is read-only unless the process has admin rights.
func openRegistry(cfg *config.Config) (*registry.Registry, *telemetry.Journal) {
	user := registry.NewFileStore(filepath.Join(cfg.Settings.UserDataDir, RegistryFile))
	systemPath := filepath.Join(cfg.Settings.SystemDataDir, RegistryFile)
	system := registry.NewReadOnlyFileStore(systemPath)
	if registry.HasAdminRights() {
		system = registry.NewFileStore(systemPath)
	}

	reg := registry.New(user, system)
	userID, err := reg.UserID()
	if err != nil {
		logger.Debug("Telemetry disabled", logger.Fields{"error": err})
		return reg, nil
	}
	journal := telemetry.NewJournal(cfg.Settings.UserDataDir, userID)
	return registry.New(user, system, registry.WithJournal(journal)), journal
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isJSON(cfg *config.Config) bool {
	return cfg.Settings.OutputFormat == OutputJSON
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
