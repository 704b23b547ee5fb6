package installer

import (
	"context"
	goerrors "errors"
	"io"
	"os"
	"os/exec"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
)

// ExecLauncher runs an installer executable and waits for it.
type ExecLauncher struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecLauncher returns a launcher wired to the process's own stdio.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Launch starts the installer. Shell script installers run through sh.
func (l *ExecLauncher) Launch(ctx context.Context, req Request) (int, error) {
	if err := os.Chmod(req.MediaPath, fsutil.FileModeExec); err != nil {
		return -1, errors.Wrapf(errors.ErrInstallerFailed, "make %s executable: %v", req.MediaPath, err)
	}

	name, args := req.MediaPath, req.Args()
	if isShellScript(req.MediaPath) {
		name, args = "sh", append([]string{req.MediaPath}, args...)
	}
	return run(ctx, exec.CommandContext(ctx, name, args...), req.Env, l.Stdout, l.Stderr)
}

// PackageLauncher installs rpm or deb media through the system package tool.
type PackageLauncher struct {
	Tool   string
	Flags  []string
	Stdout io.Writer
	Stderr io.Writer
}

// NewPackageLauncher returns a launcher running "tool flags... media".
func NewPackageLauncher(tool string, flags ...string) *PackageLauncher {
	return &PackageLauncher{Tool: tool, Flags: flags, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Launch runs the package tool on the media.
func (l *PackageLauncher) Launch(ctx context.Context, req Request) (int, error) {
	args := append(append([]string{}, l.Flags...), req.MediaPath)
	return run(ctx, exec.CommandContext(ctx, l.Tool, args...), req.Env, l.Stdout, l.Stderr)
}

func run(ctx context.Context, cmd *exec.Cmd, env []string, stdout, stderr io.Writer) (int, error) {
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Debug("Launching installer", logger.Fields{"cmd": cmd.String()})
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if goerrors.As(err, &exitErr) && ctx.Err() == nil {
		return exitErr.ExitCode(), nil
	}
	if ctx.Err() != nil {
		return -1, errors.Wrapf(errors.ErrCancelled, "%s: %v", cmd.Path, ctx.Err())
	}
	return -1, errors.Wrapf(errors.ErrInstallerFailed, "%s: %v", cmd.Path, err)
}
