package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/hook"
	"github.com/spf13/cobra"
)

// NewHooksCmd creates the hooks command with subcommands.
func NewHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage an app's update hooks",
		Long: `Manage the tengo scripts run before and after an app is updated.

Hooks live in <app dir>/.upkeep/hooks or <app dir>/hooks and are named
after their type, e.g. pre-update.tengo.`,
	}

	cmd.AddCommand(
		newHooksInitCmd(),
		newHooksListCmd(),
		newHooksRunCmd(),
	)

	return cmd
}

func newHooksInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init APP",
		Short: "Write hook templates into an app directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, _ := openRegistry(cfg)
			app, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			written, err := hook.WriteTemplates(app.Dir)
			if err != nil {
				return err
			}
			for _, path := range written {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			if len(written) == 0 {
				logger.Info("All hooks already exist", logger.Fields{"dir": hook.Dir(app.Dir)})
			}
			return nil
		},
	}
}

func newHooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list APP",
		Short: "Show which hooks an app defines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, _ := openRegistry(cfg)
			app, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			manager := hook.NewHookManager()
			if err := hook.LoadHooksFromAppDir(manager, app.Dir); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(w, "HOOK\tSOURCE")
			for _, t := range hook.Types() {
				source := "-"
				if manager.HasHook(t) {
					source = manager.Source(t)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\n", t, source)
			}
			return w.Flush()
		},
	}
}

// Number of arguments expected by the hooks run command.
const hooksRunArgs = 2

func newHooksRunCmd() *cobra.Command {
	var (
		newVersion string
		mediaPath  string
		vars       map[string]string
	)

	cmd := &cobra.Command{
		Use:   "run APP TYPE",
		Short: "Run one of an app's hooks",
		Long:  "Run an app's pre-update or post-update hook outside an update, for testing.",
		Args:  cobra.ExactArgs(hooksRunArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			hookType := hook.HookType(strings.ToLower(args[1]))
			if !hookType.Valid() {
				return fmt.Errorf("unknown hook type %q: %w", args[1], errors.ErrHookExecution)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, _ := openRegistry(cfg)
			app, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			manager := hook.NewHookManager()
			if err := hook.LoadHooksFromAppDir(manager, app.Dir); err != nil {
				return err
			}
			if !manager.HasHook(hookType) {
				logger.Info("No hook defined", logger.Fields{"app": app.ID, "hook": hookType})
				return nil
			}

			hookVars := make(map[string]interface{}, len(vars))
			for k, v := range vars {
				hookVars[k] = v
			}
			err = manager.Execute(commandContext(cmd), hookType, hook.HookContext{
				AppID:          app.ID,
				CurrentVersion: detectVersion(app),
				NewVersion:     newVersion,
				AppDir:         app.Dir,
				MediaPath:      mediaPath,
				Vars:           hookVars,
			})
			if err != nil {
				return err
			}
			logger.Success("Hook completed", logger.Fields{"app": app.ID, "hook": hookType})
			return nil
		},
	}

	cmd.Flags().StringVar(&newVersion, "new-version", "", "Value of newVersion inside the script")
	cmd.Flags().StringVar(&mediaPath, "media", "", "Value of mediaPath inside the script")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "Extra script variables (key=value)")

	return cmd
}
