package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/config"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `View and modify the upkeep configuration file.

Keys are the names printed by "config show", e.g. cache_dir or platform.os.`,
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigInitCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show every setting and its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			values := cfg.ToMap()
			if isJSON(cfg) {
				return printJSON(cmd.OutOrStdout(), values)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(w, "KEY\tVALUE")
			for _, key := range config.Keys() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", key, values[key])
			}
			return w.Flush()
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			value, err := cfg.GetValue(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting and save the file",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			// Start from the file alone so global flags are not persisted.
			path := getConfigPath()
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.SetValue(key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveConfig(path); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			logger.Success("Configuration updated", logger.Fields{"key": key, "value": value, "path": path})
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := getConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s (use --force to overwrite): %w", path, errors.ErrConfigFileExists)
			}
			if err := config.DefaultConfig().SaveConfig(path); err != nil {
				return fmt.Errorf("failed to save default configuration: %w", err)
			}
			logger.Success("Configuration file created", logger.Fields{"path": path})
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path of the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), getConfigPath())
			return nil
		},
	}
}
