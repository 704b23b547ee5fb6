package cli

import (
	"fmt"
	"slices"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/spf13/cobra"
)

// NewPhaseCmd creates the phase command with subcommands.
func NewPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Manage an app's release phase",
		Long:  "Show and select the release phase (stable, ea, continuous) an app follows",
	}

	cmd.AddCommand(
		newPhaseListCmd(),
		newPhaseGetCmd(),
		newPhaseSetCmd(),
	)

	return cmd
}

func newPhaseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list APP",
		Short: "List the phases available to an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openApp(commandContext(cmd), args[0], appOptions{})
			if err != nil {
				return err
			}
			defer env.service.Shutdown()

			current := env.appCtx.Phase()
			phases := env.service.Phases()
			if isJSON(env.cfg) {
				names := make([]string, 0, len(phases))
				for _, p := range phases {
					names = append(names, p.Lower())
				}
				return printJSON(cmd.OutOrStdout(), names)
			}
			for _, p := range phases {
				marker := " "
				if p == current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, p.Lower())
			}
			return nil
		},
	}
}

func newPhaseGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get APP",
		Short: "Show the phase an app follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openApp(commandContext(cmd), args[0], appOptions{})
			if err != nil {
				return err
			}
			defer env.service.Shutdown()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), env.appCtx.Phase().Lower())
			return nil
		},
	}
}

// Number of arguments expected by the phase set command.
const phaseSetArgs = 2

func newPhaseSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set APP PHASE",
		Short: "Select the phase an app follows",
		Args:  cobra.ExactArgs(phaseSetArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := phase.Parse(args[1])
			if err != nil {
				return err
			}

			env, err := openApp(commandContext(cmd), args[0], appOptions{})
			if err != nil {
				return err
			}
			defer env.service.Shutdown()

			if !slices.Contains(env.service.Phases(), p) {
				return errors.Wrapf(errors.ErrInvalidPhase, "%s is not available for %s", p.Lower(), args[0])
			}
			if err := env.appCtx.SetPhase(p); err != nil {
				return err
			}
			logger.Success("Phase updated", logger.Fields{"app": args[0], "phase": p.Lower()})
			return nil
		},
	}
}
