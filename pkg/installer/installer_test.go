package installer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/installer"
	mock_installer "github.com/glorpus-work/upkeep/pkg/installer/mocks"
	"github.com/glorpus-work/upkeep/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRequestArgs(t *testing.T) {
	tests := []struct {
		name string
		req  installer.Request
		want []string
	}{
		{"interactive", installer.Request{}, nil},
		{"unattended", installer.Request{Unattended: true}, []string{"-q"}},
		{"console with url", installer.Request{Console: true, UpdatesURL: "https://example.com/updates.xml"},
			[]string{"-c", "-VupdatesUrl=https://example.com/updates.xml"}},
		{"unattended into dir", installer.Request{Unattended: true, AppDir: "/opt/app"},
			[]string{"-q", "-dir", "/opt/app"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Args())
		})
	}
}

func TestForType(t *testing.T) {
	l, err := installer.ForType(media.TypeInstaller)
	require.NoError(t, err)
	assert.IsType(t, &installer.ExecLauncher{}, l)

	l, err = installer.ForType(media.TypeArchive)
	require.NoError(t, err)
	assert.IsType(t, &installer.ArchiveLauncher{}, l)

	l, err = installer.ForType(media.TypeRPM)
	require.NoError(t, err)
	assert.Equal(t, "rpm", l.(*installer.PackageLauncher).Tool)

	l, err = installer.ForType(media.TypeDEB)
	require.NoError(t, err)
	assert.Equal(t, "dpkg", l.(*installer.PackageLauncher).Tool)

	_, err = installer.ForType(media.Type(42))
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app-linux-x64-2.0.0.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestExecLauncherRunsShellInstaller(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	script := writeScript(t, "echo \"$@\"\necho \"$UPKEEP_TEST\"\n")

	var out bytes.Buffer
	l := &installer.ExecLauncher{Stdout: &out, Stderr: &out}
	code, err := l.Launch(context.Background(), installer.Request{
		MediaPath:  script,
		Unattended: true,
		UpdatesURL: "https://example.com/u.xml",
		Env:        []string{"UPKEEP_TEST=hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "-q -VupdatesUrl=https://example.com/u.xml", lines[0])
	assert.Equal(t, "hello", lines[1])
}

func TestExecLauncherReportsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	script := writeScript(t, "exit 3\n")

	l := &installer.ExecLauncher{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	code, err := l.Launch(context.Background(), installer.Request{MediaPath: script})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestExecLauncherMissingMedia(t *testing.T) {
	l := installer.NewExecLauncher()
	_, err := l.Launch(context.Background(), installer.Request{MediaPath: filepath.Join(t.TempDir(), "missing.sh")})
	assert.ErrorIs(t, err, errors.ErrInstallerFailed)
}

func TestPackageLauncherMissingTool(t *testing.T) {
	l := installer.NewPackageLauncher("upkeep-no-such-tool", "-i")
	_, err := l.Launch(context.Background(), installer.Request{MediaPath: "app.deb"})
	assert.ErrorIs(t, err, errors.ErrInstallerFailed)
}

func TestArchiveLauncher(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mock_installer.NewMockExtractor(ctrl)
	ctx := context.Background()

	extractor.EXPECT().ExtractAll(ctx, "/tmp/app.zip", "/opt/app").Return(12, nil)
	code, err := installer.NewArchiveLauncher(extractor).Launch(ctx, installer.Request{
		MediaPath: "/tmp/app.zip",
		AppDir:    "/opt/app",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestArchiveLauncherFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mock_installer.NewMockExtractor(ctrl)
	ctx := context.Background()
	l := installer.NewArchiveLauncher(extractor)

	_, err := l.Launch(ctx, installer.Request{MediaPath: "/tmp/app.zip"})
	assert.ErrorIs(t, err, errors.ErrInstallerFailed)

	extractor.EXPECT().ExtractAll(ctx, "/tmp/app.zip", "/opt/app").Return(0, os.ErrNotExist)
	code, err := l.Launch(ctx, installer.Request{MediaPath: "/tmp/app.zip", AppDir: "/opt/app"})
	assert.ErrorIs(t, err, errors.ErrInstallerFailed)
	assert.Equal(t, 1, code)
}
