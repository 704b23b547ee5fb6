package cli

import (
	"fmt"

	"github.com/glorpus-work/upkeep/pkg/telemetry"
	"github.com/spf13/cobra"
)

// NewTelemetryCmd creates the telemetry command with subcommands.
func NewTelemetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Inspect the local event journal",
	}

	cmd.AddCommand(newTelemetryDrainCmd())

	return cmd
}

func newTelemetryDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Print and clear the recorded events",
		Long:  "Print the recorded lifecycle events as JSON and empty the journal.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, journal := openRegistry(cfg)
			if journal == nil {
				return fmt.Errorf("telemetry journal unavailable")
			}

			events, err := journal.Drain()
			if err != nil {
				return err
			}
			if events == nil {
				events = []telemetry.Event{}
			}
			return printJSON(cmd.OutOrStdout(), events)
		},
	}
}
