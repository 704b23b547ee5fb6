package hook

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/upkeep/pkg/errors"
)

// FileExtension is the extension of hook scripts.
const FileExtension = ".tengo"

// Dir returns the directory an application keeps its hook scripts in.
func Dir(appDir string) string {
	return filepath.Join(appDir, ".upkeep", "hooks")
}

// LoadHooksFromAppDir loads hooks from an application directory.
// It looks for hook files in the following locations:
// - <appDir>/.upkeep/hooks/<hook-type>.tengo
// - <appDir>/hooks/<hook-type>.tengo
// A script in the first location wins.
func LoadHooksFromAppDir(manager HookManager, appDir string) error {
	for _, dir := range []string{filepath.Join(appDir, "hooks"), Dir(appDir)} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := loadHooksFromDir(manager, dir); err != nil {
			return errors.Wrapf(errors.ErrHookLoad, "%s: %v", dir, err)
		}
	}
	return nil
}

// loadHooksFromDir loads all hook files from a directory
func loadHooksFromDir(manager HookManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != FileExtension {
			continue
		}

		hookType := HookType(strings.TrimSuffix(entry.Name(), FileExtension))
		if !hookType.Valid() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := manager.AddHook(Hook{Type: hookType, Content: string(content), Source: path}); err != nil {
			return err
		}
	}
	return nil
}

// WriteTemplates writes a template for every hook type missing from the
// application's hook directory and returns the paths it created.
func WriteTemplates(appDir string) ([]string, error) {
	dir := Dir(appDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var created []string
	for _, t := range Types() {
		path := filepath.Join(dir, string(t)+FileExtension)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(HookTemplate(t)), 0o644); err != nil {
			return created, err
		}
		created = append(created, path)
	}
	return created, nil
}

// HookTemplate generates a template for a hook script
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PreUpdate:
		return `// Pre-update hook
// This script runs after the new release is downloaded and before it is installed.
// Available variables:
// - appId: string - id of the application being updated
// - currentVersion: string - installed version
// - newVersion: string - version about to be installed
// - appDir: string - installation directory
// - mediaPath: string - path of the downloaded artifact
// Assign a message to err to abort the update.

// Example: refuse to update while a lock file exists
/*
os := import("os")
if !is_error(os.stat(appDir + "/.busy")) {
    err := "application is busy"
}
*/`

	case PostUpdate:
		return `// Post-update hook
// This script runs after the installer finished.
// Available variables: same as pre-update hook

// Example: log the upgrade
/*
fmt := import("fmt")
fmt.println("updated " + appId + " from " + currentVersion + " to " + newVersion)
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
