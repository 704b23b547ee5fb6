// Package fsutil provides path resolution and small file helpers.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// GetCacheDir returns the platform-specific cache directory for the application
// On Linux: ~/.cache/upkeep/
// On macOS: ~/Library/Caches/upkeep/
// On Windows: %LOCALAPPDATA%\upkeep\
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// getAppDataDir returns the platform-specific base data directory
// On Linux: ~/.local/share
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func getAppDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return "", errors.New("LOCALAPPDATA environment variable not set")
		}
		return localAppData, nil

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil

	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return xdgDataHome, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// GetUserDataDir returns the per-user data directory. User scoped app
// registrations, per-app preferences and the telemetry journal live here.
func GetUserDataDir() (string, error) {
	baseDir, err := getAppDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, AppName), nil
}

// GetSystemDataDir returns the machine-wide directory holding system scoped
// app registrations.
func GetSystemDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if pd := os.Getenv("ProgramData"); pd != "" {
			return filepath.Join(pd, AppName)
		}
		return filepath.Join(`C:\ProgramData`, AppName)
	case "darwin":
		return filepath.Join("/Library", "Application Support", AppName)
	default:
		return filepath.Join("/etc", AppName)
	}
}

// GetConfigDir returns the per-user configuration directory.
func GetConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}
