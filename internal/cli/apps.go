package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/config"
	"github.com/glorpus-work/upkeep/pkg/media"
	"github.com/glorpus-work/upkeep/pkg/registry"
	"github.com/spf13/cobra"
)

type registerOptions struct {
	id         string
	dir        string
	launcher   string
	updatesURL string
	packaging  string
	category   string
	scope      string
}

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	var opts registerOptions

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an installed application",
		Long: `Register an installed application so upkeep can check it for updates.

The updates URL may contain ${phase}, which is replaced by the app's release
phase (stable, ea or continuous) when checking.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRegister(opts)
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "Application id")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Installation directory")
	cmd.Flags().StringVar(&opts.launcher, "launcher", "", "Launcher id (defaults to the app id)")
	cmd.Flags().StringVar(&opts.updatesURL, "updates-url", "", "Update descriptor URL")
	cmd.Flags().StringVar(&opts.packaging, "packaging", media.TypeInstaller.String(),
		"Media type installed for updates (installer, rpm, deb, archive)")
	cmd.Flags().StringVar(&opts.category, "category", string(registry.CategoryGUI), "Application category (gui, cli, service)")
	cmd.Flags().StringVar(&opts.scope, "scope", "", "Registration scope (user, system)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func runRegister(opts registerOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, _ := openRegistry(cfg)

	app, err := opts.app()
	if err != nil {
		return err
	}
	app, err = reg.Register(app)
	if err != nil {
		return err
	}

	logger.Success("Application registered", logger.Fields{"app": app.ID, "scope": app.Scope, "dir": app.Dir})
	return nil
}

func (o registerOptions) app() (registry.App, error) {
	dir, err := filepath.Abs(o.dir)
	if err != nil {
		return registry.App{}, fmt.Errorf("invalid directory %q: %w", o.dir, err)
	}
	packaging, err := media.ParseType(o.packaging)
	if err != nil {
		return registry.App{}, err
	}
	category, err := registry.ParseCategory(o.category)
	if err != nil {
		return registry.App{}, err
	}

	app := registry.App{
		ID:         o.id,
		Dir:        dir,
		LauncherID: o.launcher,
		UpdatesURL: o.updatesURL,
		Packaging:  packaging,
		Category:   category,
	}
	if app.LauncherID == "" {
		app.LauncherID = o.id
	}
	if o.scope != "" {
		if app.Scope, err = registry.ParseScope(o.scope); err != nil {
			return registry.App{}, err
		}
	}
	return app, nil
}

// NewDeregisterCmd creates the deregister command.
func NewDeregisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deregister APP",
		Short: "Remove an application from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, _ := openRegistry(cfg)
			if err := reg.Deregister(args[0]); err != nil {
				return err
			}
			logger.Success("Application deregistered", logger.Fields{"app": args[0]})
			return nil
		},
	}

	return cmd
}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered applications",
		Long: `List registered applications with their installed version and phase.

By default user applications are listed, followed by system applications
when running with administrative rights.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.OutOrStdout(), scope)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Only list apps of this scope (user, system)")

	return cmd
}

type appRow struct {
	ID      string `json:"id"`
	Scope   string `json:"scope"`
	Version string `json:"version"`
	Phase   string `json:"phase"`
	Dir     string `json:"dir"`
	Updates string `json:"updatesUrl,omitempty"`
}

func runList(w io.Writer, scopeName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var scope registry.Scope
	if scopeName != "" {
		if scope, err = registry.ParseScope(scopeName); err != nil {
			return err
		}
	}

	reg, _ := openRegistry(cfg)
	rows := listRows(cfg, reg, reg.Apps(scope))
	if isJSON(cfg) {
		return printJSON(w, rows)
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No applications registered")
		return nil
	}

	tabWriter := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "ID\tSCOPE\tVERSION\tPHASE\tDIR")
	for _, row := range rows {
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\t%s\n", row.ID, row.Scope, row.Version, row.Phase, row.Dir)
	}
	return tabWriter.Flush()
}

func listRows(cfg *config.Config, reg *registry.Registry, apps []registry.App) []appRow {
	rows := make([]appRow, 0, len(apps))
	for _, app := range apps {
		current := detectVersion(app)
		appCtx := reg.Context(app, func() string { return current },
			registry.WithDefaultPhase(defaultPhase(cfg, current)))
		rows = append(rows, appRow{
			ID:      app.ID,
			Scope:   strings.ToLower(string(app.Scope)),
			Version: current,
			Phase:   appCtx.Phase().Lower(),
			Dir:     app.Dir,
			Updates: app.UpdatesURL,
		})
	}
	return rows
}
