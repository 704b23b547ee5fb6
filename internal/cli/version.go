package cli

import (
	"fmt"
	"io"

	"github.com/glorpus-work/upkeep/pkg/version"
	"github.com/spf13/cobra"
)

// Set at link time with -ldflags "-X".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for upkeep.

With --app, show the detected version of a registered application instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if appID != "" {
				return runAppVersion(cmd.OutOrStdout(), appID)
			}
			runVersion(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "", "Show the installed version of a registered app")

	return cmd
}

func runVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "upkeep version %s\n", Version)
	_, _ = fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	_, _ = fmt.Fprintf(w, "Git commit: %s\n", GitCommit)
}

func runAppVersion(w io.Writer, id string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, _ := openRegistry(cfg)
	app, err := reg.Get(id)
	if err != nil {
		return err
	}

	details := version.NewDetector(app.Dir).Details("", "")
	if isJSON(cfg) {
		return printJSON(w, map[string]string{
			"id":        app.ID,
			"version":   details.Version,
			"buildDate": details.BuildDate,
		})
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", app.ID, details.Version)
	if details.BuildDate != "" {
		_, _ = fmt.Fprintf(w, "Build date: %s\n", details.BuildDate)
	}
	return nil
}
