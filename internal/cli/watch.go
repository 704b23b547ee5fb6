package cli

import (
	"context"
	"fmt"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/schedule"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var (
		opts   appOptions
		serial bool
	)

	cmd := &cobra.Command{
		Use:   "watch [APP...]",
		Short: "Check apps for updates in the background",
		Long: `Keep running and check the given apps (or every registered app) for
updates. The first check happens shortly after start unless the app's
updates are deferred; later checks happen once a day in the deferral window.
Found updates are installed unless --check-only is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(commandContext(cmd), args, opts, serial)
		},
	}

	opts.bindFlags(cmd)
	cmd.Flags().BoolVar(&opts.checkOnly, "check-only", false, "Only report updates, never install them")
	cmd.Flags().BoolVar(&serial, "serial", true, "Run all checks on a single goroutine")

	return cmd
}

func watchedApps(ids []string, strategy string) ([]string, error) {
	if len(ids) > 0 {
		return ids, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	reg, _ := openRegistry(cfg)
	for _, app := range reg.Apps("") {
		if app.UpdatesURL != "" || (strategy != "" && strategy != StrategyDescriptor) {
			ids = append(ids, app.ID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no updateable applications registered")
	}
	return ids, nil
}

func runWatch(ctx context.Context, ids []string, opts appOptions, serial bool) error {
	ids, err := watchedApps(ids, opts.strategy)
	if err != nil {
		return err
	}

	var run func(context.Context) error
	if serial {
		loop := schedule.NewLoop()
		opts.scheduler = loop
		run = loop.Run
	} else {
		timers := schedule.NewTimerScheduler()
		defer func() { _ = timers.Close() }()
		opts.scheduler = timers
		run = func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}
	}
	opts.unattended = true

	var (
		failed  *multierror.Error
		watched int
	)
	for _, id := range ids {
		env, err := openApp(ctx, id, opts)
		if err != nil {
			failed = multierror.Append(failed, err)
			continue
		}
		defer env.service.Shutdown()

		env.service.SetOnAvailableVersion(func(v string) {
			if v != "" {
				logger.Info("Update available", logger.Fields{"app": id, "version": v})
			}
		})
		if err := env.service.RescheduleCheck(); err != nil {
			failed = multierror.Append(failed, fmt.Errorf("failed to schedule update check for %s: %w", id, err))
			continue
		}
		watched++
		logger.Info("Watching for updates", logger.Fields{"app": id, "phase": env.appCtx.Phase().Lower()})
	}
	if watched == 0 {
		return failed.ErrorOrNil()
	}
	if err := failed.ErrorOrNil(); err != nil {
		logger.Warn("Some applications are not watched", logger.Fields{"error": err.Error()})
	}

	err = run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("Stopped watching for updates")
	return nil
}
