//go:build integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glorpus-work/upkeep/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installerScript = `#!/bin/sh
echo "$@" > "%s"
`

type testEnv struct {
	root       string
	configPath string
	appDir     string
	feedDir    string
	marker     string
}

const mediaName = "app-linux-x64-2.0.0.sh"

// newTestEnv writes a config rooted in a temp dir and a stable feed that
// offers version 2.0.0 of a linux installer.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		root:       root,
		configPath: testutil.SetupTestConfig(t, root),
		appDir:     filepath.Join(root, "app"),
		feedDir:    filepath.Join(root, "feed"),
		marker:     filepath.Join(root, "installed.txt"),
	}
	require.NoError(t, os.MkdirAll(env.appDir, 0o755))

	stableURL := "file://" + filepath.ToSlash(filepath.Join(env.feedDir, "stable"))
	testutil.WriteFeed(t, env.feedDir, "stable", stableURL, env.media()...)

	t.Setenv("UPKEEP_DEV_VERSION", "1.0.0")
	return env
}

func (e *testEnv) media() []testutil.Media {
	return []testutil.Media{
		{FileName: mediaName, Version: "2.0.0", Content: fmt.Sprintf(installerScript, e.marker)},
		{FileName: "app-windows-x64-2.0.0.exe", Version: "2.0.0", Content: "MZ"},
	}
}

func (e *testEnv) updatesURL() string {
	return "file://" + filepath.ToSlash(e.feedDir) + "/${phase}/" + testutil.DescriptorFile
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) register(t *testing.T) {
	t.Helper()
	e.registerWith(t, e.updatesURL())
}

func (e *testEnv) registerWith(t *testing.T, updatesURL string) {
	t.Helper()
	_, err := e.run(t, "register",
		"--id", "demo",
		"--dir", e.appDir,
		"--updates-url", updatesURL,
		"--scope", "user")
	require.NoError(t, err)
}

func TestRegisterAndList(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	out, err := env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "1.0.0")
	assert.Contains(t, out, "stable")

	out, err = env.run(t, "--output", "json", "list")
	require.NoError(t, err)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "demo", rows[0]["id"])
	assert.Equal(t, "user", rows[0]["scope"])

	_, err = env.run(t, "deregister", "demo")
	require.NoError(t, err)
	out, err = env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No applications registered")
}

func TestRegister_MissingFlags(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "register", "--dir", env.appDir)
	require.Error(t, err)
}

func TestCheck_ReportsAvailableVersion(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	out, err := env.run(t, "check", "demo")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", strings.TrimSpace(out))

	t.Setenv("UPKEEP_DEV_VERSION", "2.0.0")
	out, err = env.run(t, "check", "demo")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestUpdate_OverHTTP(t *testing.T) {
	env := newTestEnv(t)
	httpRoot := filepath.Join(env.root, "http")
	server := testutil.NewTestServer(t, httpRoot)
	testutil.WriteFeed(t, httpRoot, "ea", server.URL+"/ea", env.media()...)
	env.registerWith(t, server.UpdatesURL())

	_, err := env.run(t, "phase", "set", "demo", "ea")
	require.NoError(t, err)

	out, err := env.run(t, "check", "demo")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", strings.TrimSpace(out))

	_, err = env.run(t, "update", "demo", "--unattended")
	require.NoError(t, err)
	assert.FileExists(t, env.marker)

	out, err = env.run(t, "cache", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Downloads:")

	out, err = env.run(t, "cache", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 files")
}

func TestCheck_UnknownApp(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "check", "missing")
	require.Error(t, err)
}

func TestUpdate_RunsInstaller(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	_, err := env.run(t, "update", "demo", "--unattended")
	require.NoError(t, err)

	args, err := os.ReadFile(env.marker)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-q")
	assert.Contains(t, string(args), env.appDir)

	out, err := env.run(t, "telemetry", "drain")
	require.NoError(t, err)
	assert.Contains(t, out, `"UPDATE"`)
	assert.Contains(t, out, `"REGISTER"`)
}

func TestDefer(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	out, err := env.run(t, "defer", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "deferred until")
}

func TestPhase_SetAndGet(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	_, err := env.run(t, "phase", "set", "demo", "ea")
	require.NoError(t, err)
	out, err := env.run(t, "phase", "get", "demo")
	require.NoError(t, err)
	assert.Equal(t, "ea", strings.TrimSpace(out))

	_, err = env.run(t, "phase", "set", "demo", "continuous")
	require.Error(t, err)

	_, err = env.run(t, "phase", "set", "demo", "nightly")
	require.Error(t, err)
}

func TestMedia_MarksBest(t *testing.T) {
	env := newTestEnv(t)

	descriptor := filepath.Join(env.feedDir, "stable", testutil.DescriptorFile)
	out, err := env.run(t, "media", descriptor)
	require.NoError(t, err)
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "app-linux-x64-2.0.0.sh") {
			assert.True(t, strings.HasPrefix(line, "*"), line)
		}
		if strings.Contains(line, "windows") {
			assert.False(t, strings.HasPrefix(line, "*"), line)
		}
	}

	out, err = env.run(t, "media", "--os", "windows", descriptor)
	require.NoError(t, err)
	assert.Contains(t, out, "* ")
}

func TestConfig_SetAndGet(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "config", "set", "default_phase", "ea")
	require.NoError(t, err)
	out, err := env.run(t, "config", "get", "default_phase")
	require.NoError(t, err)
	assert.Equal(t, "ea", strings.TrimSpace(out))

	_, err = env.run(t, "config", "get", "nope")
	require.Error(t, err)
	_, err = env.run(t, "config", "set", "default_phase", "nightly")
	require.Error(t, err)

	out, err = env.run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, env.configPath, strings.TrimSpace(out))

	_, err = env.run(t, "config", "init")
	require.Error(t, err)
	_, err = env.run(t, "config", "init", "--force")
	require.NoError(t, err)
}

func TestHooks_InitAndRun(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	out, err := env.run(t, "hooks", "init", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "pre-update.tengo")

	out, err = env.run(t, "hooks", "list", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(".upkeep", "hooks", "post-update.tengo"))

	_, err = env.run(t, "hooks", "run", "demo", "pre-update", "--new-version", "2.0.0")
	require.NoError(t, err)

	_, err = env.run(t, "hooks", "run", "demo", "mid-update")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "upkeep version")

	out, err = env.run(t, "version", "--app", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "demo 1.0.0")
}
