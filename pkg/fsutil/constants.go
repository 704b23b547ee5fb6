package fsutil

// File and directory permission constants used for registry files, the
// telemetry journal and extracted archive media.
const (
	FileModeDefault = 0o644 // -rw-r--r--
	FileModeSecure  = 0o600 // -rw-------
	FileModeExec    = 0o755 // -rwxr-xr-x

	DirModeDefault = 0o755 // drwxr-xr-x
	DirModeSecure  = 0o750 // drwxr-x---
	DirModePrivate = 0o700 // drwx------
)

// AppName is the name of the application used in paths.
const AppName = "upkeep"
