package cli

import (
	"context"
	goerrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

const (
	ServiceName        = "upkeep"
	serviceStopTimeout = 30 * time.Second
)

// watchProgram runs the watch loop under the host's service manager.
type watchProgram struct {
	ids    []string
	opts   appOptions
	serial bool

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (p *watchProgram) Start(service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		p.err = runWatch(ctx, p.ids, p.opts, p.serial)
		if p.err != nil {
			logger.Error("Watch stopped with an error", logger.Fields{"error": p.err.Error()})
		}
	}()
	return nil
}

func (p *watchProgram) Stop(service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	select {
	case <-p.done:
	case <-time.After(serviceStopTimeout):
		logger.Warn("Watch did not stop in time")
	}
	return nil
}

// serviceConfig describes the upkeep watcher to the service manager. The
// installed service re-enters this binary through "service run".
func serviceConfig(ids []string) *service.Config {
	args := []string{"service", "run"}
	if ConfigPath != nil && *ConfigPath != "" {
		args = append(args, "--config", *ConfigPath)
	}
	args = append(args, ids...)

	return &service.Config{
		Name:        ServiceName,
		DisplayName: "Upkeep Update Watcher",
		Description: "Checks registered applications for updates and installs them.",
		Arguments:   args,
		Option: service.KeyValue{
			"StartType":  "automatic",
			"OnFailure":  "restart",
			"Restart":    "on-failure",
			"RestartSec": 5,
			"KillSignal": "SIGTERM",
			"RunAtLoad":  true,
			"KeepAlive":  true,
		},
	}
}

func newService(ids []string, opts appOptions, serial bool) (service.Service, *watchProgram, error) {
	prg := &watchProgram{ids: ids, opts: opts, serial: serial}
	svc, err := service.New(prg, serviceConfig(ids))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, prg, nil
}

// NewServiceCmd creates the service command.
func NewServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run the update watcher as a system service",
	}

	cmd.AddCommand(
		newServiceRunCmd(),
		newServiceControlCmd("install", "Install the watcher service"),
		newServiceControlCmd("uninstall", "Remove the watcher service"),
		newServiceControlCmd("start", "Start the installed watcher service"),
		newServiceControlCmd("stop", "Stop the running watcher service"),
		newServiceControlCmd("restart", "Restart the watcher service"),
		newServiceStatusCmd(),
	)

	return cmd
}

func newServiceRunCmd() *cobra.Command {
	var (
		opts   appOptions
		serial bool
	)

	cmd := &cobra.Command{
		Use:   "run [APP...]",
		Short: "Run the watcher in the foreground or under the service manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !service.Interactive() {
				if err := serviceLogging(); err != nil {
					return err
				}
			}
			svc, prg, err := newService(args, opts, serial)
			if err != nil {
				return err
			}
			if err := svc.Run(); err != nil {
				return fmt.Errorf("service run failed: %w", err)
			}
			return prg.err
		},
	}

	opts.bindFlags(cmd)
	cmd.Flags().BoolVar(&opts.checkOnly, "check-only", false, "Only report updates, never install them")
	cmd.Flags().BoolVar(&serial, "serial", true, "Run all checks on a single goroutine")

	return cmd
}

// serviceLogging writes to <user data dir>/logs/upkeep.log when no log file is
// configured, since a service has no terminal.
func serviceLogging() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Settings.LogFile != "" {
		return nil
	}
	return initLogger(cfg, filepath.Join(cfg.Settings.UserDataDir, "logs", ServiceName+".log"))
}

func newServiceControlCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " [APP...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService(args, appOptions{strategy: StrategyDescriptor}, true)
			if err != nil {
				return err
			}
			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("failed to %s service: %w", action, err)
			}
			logger.Success(fmt.Sprintf("Service %s succeeded", action), logger.Fields{"service": ServiceName})
			return nil
		},
	}
}

func newServiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the watcher service is installed and running",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService(nil, appOptions{}, true)
			if err != nil {
				return err
			}
			status, err := svc.Status()
			if err != nil && !goerrors.Is(err, service.ErrNotInstalled) {
				return fmt.Errorf("failed to query service: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), serviceStatusString(status))
			return nil
		},
	}
}

func serviceStatusString(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "not installed"
	}
}
