package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glorpus-work/upkeep/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	verbose      bool
	noColor      bool
	outputFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upkeep",
		Short: "Keep installed applications up to date",
		Long: `upkeep keeps installed applications up to date:
- Registry: register installed apps and their update feeds
- Updates: check, download and install new releases per release phase
- Scheduling: daily background checks that can be deferred`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return cli.InitLogging()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (json, table)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.NoColor = &noColor
	cli.OutputFormat = &outputFormat

	// Add subcommands
	cmd.AddCommand(
		cli.NewCheckCmd(),
		cli.NewUpdateCmd(),
		cli.NewDeferCmd(),
		cli.NewPhaseCmd(),
		cli.NewRegisterCmd(),
		cli.NewDeregisterCmd(),
		cli.NewListCmd(),
		cli.NewMediaCmd(),
		cli.NewWatchCmd(),
		cli.NewServiceCmd(),
		cli.NewHooksCmd(),
		cli.NewTelemetryCmd(),
		cli.NewCacheCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
