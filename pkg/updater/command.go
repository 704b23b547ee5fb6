package updater

import (
	"bufio"
	"context"
	goerrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
)

const (
	// DefaultCheckTimeout bounds a delegated check.
	DefaultCheckTimeout = time.Minute
	// DefaultUpdateWait is how long a delegated install is waited for.
	DefaultUpdateWait = 5 * time.Minute
)

// CommandUpdater delegates to an external upkeep binary, for apps that are
// managed by a shared toolbox install rather than updating themselves.
// A check runs "<program> check <app>" and takes the first stdout line as
// the available version. An update runs "<program> update <app> --unattended".
type CommandUpdater struct {
	Program      string
	AppID        string
	CheckTimeout time.Duration
	UpdateWait   time.Duration
	Stdin        io.Reader
	Stdout       io.Writer
	Stderr       io.Writer
}

// NewCommandUpdater returns a command updater for appID using the running
// executable as the program.
func NewCommandUpdater(appID string) *CommandUpdater {
	program, err := os.Executable()
	if err != nil {
		program = "upkeep"
	}
	return &CommandUpdater{
		Program:      program,
		AppID:        appID,
		CheckTimeout: DefaultCheckTimeout,
		UpdateWait:   DefaultUpdateWait,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}
}

// Update implements update.Updater.
func (u *CommandUpdater) Update(ctx context.Context, checkOnly bool) (string, error) {
	if checkOnly {
		return u.check(ctx)
	}
	return "", u.install(ctx)
}

func (u *CommandUpdater) check(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(u.CheckTimeout, DefaultCheckTimeout))
	defer cancel()

	cmd := exec.CommandContext(ctx, u.Program, "check", u.AppID)
	cmd.Stderr = u.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", errors.Wrap(errors.ErrUpdateFailed, err.Error())
	}
	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(errors.ErrUpdateFailed, "start %s: %v", u.Program, err)
	}

	var lines []string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			logger.Warn("Update check timed out", logger.Fields{"app": u.AppID})
			return "", nil
		}
		var exitErr *exec.ExitError
		if goerrors.As(err, &exitErr) {
			logger.Debug("Update check exited", logger.Fields{"app": u.AppID, "code": exitErr.ExitCode()})
			return "", nil
		}
		return "", errors.Wrap(errors.ErrUpdateFailed, err.Error())
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}

func (u *CommandUpdater) install(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, orDefault(u.UpdateWait, DefaultUpdateWait))
	defer cancel()

	cmd := exec.CommandContext(ctx, u.Program, "update", u.AppID, "--unattended")
	cmd.Stdin = u.Stdin
	cmd.Stdout = u.Stdout
	cmd.Stderr = u.Stderr
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(errors.ErrUpdateFailed, "start %s: %v", u.Program, err)
	}

	switch err := cmd.Wait(); {
	case ctx.Err() != nil:
		logger.Warn("Updater did not finish in time and was stopped", logger.Fields{"app": u.AppID})
	case err == nil:
		logger.Warn("Updater exited with success state, but we are still running. This is unexpected.", logger.Fields{"app": u.AppID})
	default:
		logger.Error("Updater exited with error state, check the output above for possible reasons.", logger.Fields{"app": u.AppID, "error": err})
	}
	return nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
