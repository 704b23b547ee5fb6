package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/config"
	"github.com/glorpus-work/upkeep/pkg/download"
	"github.com/glorpus-work/upkeep/pkg/hook"
	"github.com/glorpus-work/upkeep/pkg/media"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/registry"
	"github.com/glorpus-work/upkeep/pkg/schedule"
	"github.com/glorpus-work/upkeep/pkg/telemetry"
	"github.com/glorpus-work/upkeep/pkg/update"
	"github.com/glorpus-work/upkeep/pkg/updater"
	"github.com/glorpus-work/upkeep/pkg/version"
	"github.com/spf13/cobra"
)

// appOptions select how an app's update service is assembled.
type appOptions struct {
	strategy   string
	unattended bool
	console    bool
	scheduler  schedule.Scheduler
	checkOnly  bool
	progress   io.Writer
}

func (o *appOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.strategy, "strategy", StrategyDescriptor,
		"updater to use (descriptor, toolbox, dummy)")
}

// appEnv is a registered app with its update service.
type appEnv struct {
	cfg     *config.Config
	reg     *registry.Registry
	app     registry.App
	appCtx  *registry.PreferenceContext
	service *update.Service
}

func detectVersion(app registry.App) string {
	return version.NewDetector(app.Dir).Version("", "")
}

func defaultPhase(cfg *config.Config, current string) phase.Phase {
	if p := cfg.Phase(); p != phase.Stable {
		return p
	}
	return phase.DefaultForVersion(current)
}

func phasePolicy(cfg *config.Config) *phase.Policy {
	p := phase.DefaultPolicy()
	p.UserDataDir = cfg.Settings.UserDataDir
	p.OptIn = cfg.Settings.AllowContinuous
	return p
}

// openApp looks up id and wires its update service.
func openApp(ctx context.Context, id string, opts appOptions) (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	reg, _ := openRegistry(cfg)
	app, err := reg.Get(id)
	if err != nil {
		return nil, err
	}

	current := detectVersion(app)
	ctxOpts := []registry.ContextOption{registry.WithDefaultPhase(defaultPhase(cfg, current))}
	if opts.scheduler != nil {
		ctxOpts = append(ctxOpts, registry.WithScheduler(opts.scheduler))
	}
	if opts.checkOnly {
		ctxOpts = append(ctxOpts, registry.WithAutomaticUpdates(false))
	}
	appCtx := reg.Context(app, func() string { return current }, ctxOpts...)

	env := &appEnv{cfg: cfg, reg: reg, app: app, appCtx: appCtx}
	upd, setListener, err := env.newUpdater(opts)
	if err != nil {
		return nil, err
	}

	svcOpts := []update.Option{
		update.WithUpdatesEnabled(func() bool {
			return !cfg.Settings.UpdatesDisabled && update.UpdatesEnabledFromEnv()
		}),
		update.WithNonDeferredDelay(cfg.Settings.NonDeferredDelay),
		update.WithPhasePolicy(phasePolicy(cfg)),
		update.WithBaseContext(ctx),
	}
	if opts.checkOnly {
		svcOpts = append(svcOpts, update.WithCheckOnly())
	}
	env.service = update.New(appCtx, upd, svcOpts...)
	if setListener != nil {
		setListener(env.service.FireDownload)
	}
	if opts.progress != nil {
		env.service.AddDownloadListener(progressPrinter(opts.progress))
	}
	return env, nil
}

func (e *appEnv) newUpdater(opts appOptions) (update.Updater, func(update.DownloadListener), error) {
	switch opts.strategy {
	case "", StrategyDescriptor:
	case StrategyToolbox:
		return updater.NewCommandUpdater(e.app.ID), nil, nil
	case StrategyDummy:
		return updater.NewDummyUpdater(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown strategy %q", opts.strategy)
	}

	hooks := hook.NewHookManager()
	if err := hook.LoadHooksFromAppDir(hooks, e.app.Dir); err != nil {
		return nil, nil, err
	}

	settings := e.cfg.Settings
	u, err := updater.NewDescriptorUpdater(updater.Config{
		AppID:     e.app.ID,
		AppDir:    e.app.Dir,
		Packaging: e.app.Packaging,
		Context:   e.appCtx,
		Locate: func(p phase.Phase) (*url.URL, error) {
			return e.reg.UpdatesURL(e.app, p)
		},
		Fetcher:     media.NewHTTPFetcher(settings.DescriptorTimeout, settings.UserAgent),
		Downloader:  download.NewManager(settings.HTTPTimeout, settings.UserAgent),
		Hooks:       hooks,
		Platform:    e.cfg.Platform(),
		DownloadDir: e.cfg.DownloadDir(),
		Unattended:  opts.unattended,
		Console:     opts.console,
		OnExit: func(code int) {
			logger.Info("Installer finished", logger.Fields{"app": e.app.ID, "code": code})
		},
		Record: func(kind telemetry.EventType, description string) {
			e.reg.Record(e.app, kind, description)
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return u, u.SetListener, nil
}

// progressPrinter renders download events as coarse progress lines.
func progressPrinter(w io.Writer) update.DownloadListener {
	last := -1
	return func(ev update.DownloadEvent) {
		switch ev.Type {
		case update.EventStart:
			last = -1
			_, _ = fmt.Fprintf(w, "%s %s\n", ev.Message, ev.Detail)
		case update.EventProgress:
			if step := int(ev.Percent) / 10; step > last {
				last = step
				_, _ = fmt.Fprintf(w, "  %3.0f%%\n", ev.Percent)
			}
		case update.EventEnd:
			_, _ = fmt.Fprintln(w, ev.Message)
		}
	}
}
