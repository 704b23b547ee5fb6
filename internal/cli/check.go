package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/spf13/cobra"
)

type checkResult struct {
	ID        string `json:"id"`
	Current   string `json:"current"`
	Available string `json:"available,omitempty"`
	Phase     string `json:"phase"`
}

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	var opts appOptions

	cmd := &cobra.Command{
		Use:   "check APP",
		Short: "Check an app for updates",
		Long: `Check whether a newer version of a registered app is published in its
current phase. The first output line is the available version, or empty
when the app is up to date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	opts.bindFlags(cmd)

	return cmd
}

func runCheck(cmd *cobra.Command, id string, opts appOptions) error {
	env, err := openApp(commandContext(cmd), id, opts)
	if err != nil {
		return err
	}
	defer env.service.Shutdown()

	if err := env.service.CheckForUpdate(commandContext(cmd)); err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}

	available, _ := env.service.AvailableVersion()
	return printCheck(cmd.OutOrStdout(), env, available)
}

func printCheck(w io.Writer, env *appEnv, available string) error {
	if isJSON(env.cfg) {
		return printJSON(w, checkResult{
			ID:        env.app.ID,
			Current:   env.service.CurrentVersion(),
			Available: available,
			Phase:     env.appCtx.Phase().Lower(),
		})
	}
	_, _ = fmt.Fprintln(w, available)
	return nil
}

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	var opts appOptions

	cmd := &cobra.Command{
		Use:   "update APP",
		Short: "Download and install an app update",
		Long: `Check a registered app for updates and install the newest version
available in its phase.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.progress = cmd.ErrOrStderr()
			return runUpdate(cmd, args[0], opts)
		},
	}

	opts.bindFlags(cmd)
	cmd.Flags().BoolVar(&opts.unattended, "unattended", false, "Run the installer without user interaction")
	cmd.Flags().BoolVar(&opts.console, "console", false, "Run the installer in console mode")

	return cmd
}

func runUpdate(cmd *cobra.Command, id string, opts appOptions) error {
	ctx := commandContext(cmd)
	env, err := openApp(ctx, id, opts)
	if err != nil {
		return err
	}
	defer env.service.Shutdown()

	if err := env.service.CheckForUpdate(ctx); err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	available, ok := env.service.AvailableVersion()
	if !ok {
		logger.Info("Already up to date", logger.Fields{"app": id, "version": env.service.CurrentVersion()})
		return nil
	}

	if err := env.service.Update(ctx); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	logger.Success("Updated", logger.Fields{"app": id, "version": available})
	return nil
}

// NewDeferCmd creates the defer command.
func NewDeferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defer APP",
		Short: "Postpone update checks for an app",
		Long:  "Skip update checks for a registered app until tomorrow's deferral window.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefer(cmd, args[0])
		},
	}

	return cmd
}

func runDefer(cmd *cobra.Command, id string) error {
	env, err := openApp(commandContext(cmd), id, appOptions{})
	if err != nil {
		return err
	}
	defer env.service.Shutdown()

	if err := env.service.DeferUpdate(); err != nil {
		return err
	}

	until := env.appCtx.DeferredUntil()
	if isJSON(env.cfg) {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"id":            id,
			"deferredUntil": until.Format(time.RFC3339),
		})
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updates for %s deferred until %s\n", id, until.Local().Format(time.DateTime))
	return nil
}
