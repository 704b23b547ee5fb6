// Package errors holds the sentinel errors shared across upkeep packages
// together with small wrapping helpers.
package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists")

	// Update service errors.
	ErrAlreadyUpdating   = fmt.Errorf("already updating")
	ErrNoUpdateAvailable = fmt.Errorf("an update is not required")
	ErrUnsupported       = fmt.Errorf("operation not supported")
	ErrUpdateFailed      = fmt.Errorf("update failed")
	ErrCancelled         = fmt.Errorf("update cancelled")

	// Scheduling errors.
	ErrNoScheduler     = fmt.Errorf("no scheduler, updates cannot be deferred")
	ErrSchedulerClosed = fmt.Errorf("scheduler is closed")

	// Descriptor errors.
	ErrDescriptorParse   = fmt.Errorf("failed to load update descriptor")
	ErrDescriptorFetch   = fmt.Errorf("failed to fetch update descriptor")
	ErrUnclassifiedMedia = fmt.Errorf("media does not match any known classification")
	ErrNoMatchingMedia   = fmt.Errorf("no media matches this platform")
	ErrInvalidPhase      = fmt.Errorf("invalid phase")

	// Registry errors.
	ErrInvalidApp    = fmt.Errorf("invalid app data")
	ErrAppNotFound   = fmt.Errorf("app not found")
	ErrInvalidScope  = fmt.Errorf("invalid scope")
	ErrNoUpdatesURL  = fmt.Errorf("app has no updates url")
	ErrStoreReadOnly = fmt.Errorf("preference store is read-only")

	// Download errors.
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrFileHashMismatch = fmt.Errorf("file hash mismatch")
	ErrInvalidPath      = fmt.Errorf("invalid path")

	// Installer errors.
	ErrInstallerFailed = fmt.Errorf("installer failed")

	// Hook errors.
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")

	// Telemetry errors.
	ErrInvalidEvent = fmt.Errorf("invalid telemetry event")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
