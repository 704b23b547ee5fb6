// Package logger is the process-wide structured logger used by upkeep.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// OutputFormat selects the slog handler.
type OutputFormat string

const (
	// FormatText renders key=value lines.
	FormatText OutputFormat = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON OutputFormat = "json"
)

// Rotation limits for SetLogFile.
const (
	LogFileMaxSizeMB  = 5
	LogFileMaxBackups = 10
	LogFileMaxAgeDays = 30
)

var (
	// testOutput is used to capture log output during tests
	testOutput io.Writer
	fileOutput *lumberjack.Logger
	outputMu   sync.Mutex
)

// Fields is a type alias for log fields to make the API cleaner
type Fields map[string]interface{}

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
)

// SetTestOutput sets the output writer for testing purposes
func SetTestOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	testOutput = w
}

// UnsetTestOutput resets the test output to nil
func UnsetTestOutput() {
	outputMu.Lock()
	defer outputMu.Unlock()
	testOutput = nil
}

// SetLogFile sends log output to a size-rotated file at path. An empty path
// or "console" restores stderr. It takes effect on the next InitLogger.
func SetLogFile(path string) error {
	outputMu.Lock()
	defer outputMu.Unlock()

	if fileOutput != nil {
		_ = fileOutput.Close()
		fileOutput = nil
	}
	if path == "" || path == "console" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	fileOutput = &lumberjack.Logger{
		Filename:   filepath.ToSlash(path),
		MaxSize:    LogFileMaxSizeMB,
		MaxBackups: LogFileMaxBackups,
		MaxAge:     LogFileMaxAgeDays,
		Compress:   true,
	}
	return nil
}

func getOutput() io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	if testOutput != nil {
		return testOutput
	}
	if fileOutput != nil {
		return fileOutput
	}
	return os.Stderr
}

// ParseLevel maps a level name to a slog level, falling back to info.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global logger for CLI operations.
func InitLogger(logLevel string, format OutputFormat) {
	opts := &slog.HandlerOptions{Level: ParseLevel(logLevel)}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(getOutput(), opts)
	} else {
		handler = slog.NewTextHandler(getOutput(), opts)
	}

	loggerMu.Lock()
	logger = slog.New(handler)
	loggerMu.Unlock()
}

// GetLogger returns the configured logger instance.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l == nil {
		InitLogger("info", FormatText)
		loggerMu.RLock()
		l = logger
		loggerMu.RUnlock()
	}
	return l
}

// Named returns a child logger tagged with a component name.
func Named(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// Info logs an info message.
func Info(msg string, fields ...Fields) {
	GetLogger().Info(msg, mergeFields(fields...)...)
}

// Infof logs a formatted info message.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(fmt.Sprintf(format, args...))
}

// Debug logs a debug message (only shown when debug level is enabled).
func Debug(msg string, fields ...Fields) {
	GetLogger().Debug(msg, mergeFields(fields...)...)
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(fmt.Sprintf(format, args...))
}

// Error logs an error message.
func Error(msg string, fields ...Fields) {
	GetLogger().Error(msg, mergeFields(fields...)...)
}

// Errorf logs a formatted error message.
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func Warn(msg string, fields ...Fields) {
	GetLogger().Warn(msg, mergeFields(fields...)...)
}

// Warnf logs a formatted warning message.
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(fmt.Sprintf(format, args...))
}

// Success logs a success message as info with success indicator.
func Success(msg string, fields ...Fields) {
	allFields := mergeFields(fields...)
	allFields = append(allFields, "status", "success")
	GetLogger().Info(msg, allFields...)
}

// mergeFields merges multiple field maps into one slice of key-value pairs for slog.
func mergeFields(fields ...Fields) []interface{} {
	result := []interface{}{}
	for _, field := range fields {
		for k, v := range field {
			result = append(result, k, v)
		}
	}
	return result
}
