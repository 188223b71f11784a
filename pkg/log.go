package pkg

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

// Acquisition-core component identifiers.
const (
	ComponentDecoder Component = "decoder"
	ComponentAging   Component = "aging"
	ComponentRing    Component = "ring"
	ComponentWorker  Component = "worker"
	ComponentControl Component = "control"
	ComponentHAL     Component = "hal"
)

// LogFormat specifies the output format for logging.
type LogFormat int

// Log format options.
const (
	LogFormatText LogFormat = iota // Text format (default)
	LogFormatJSON                  // JSON format
)

var (
	// DefaultLogger is the default logger used by the USB stack.
	DefaultLogger *slog.Logger

	// logLevel controls the minimum log level.
	logLevel = new(slog.LevelVar)

	// logMutex protects logger configuration.
	logMutex sync.RWMutex
)

func init() {
	logLevel.Set(slog.LevelInfo)
	DefaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// SetLogLevel sets the minimum log level for all USB stack logging.
func SetLogLevel(level slog.Level) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logLevel.Set(level)
}

// GetLogLevel returns the current minimum log level.
func GetLogLevel() slog.Level {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return logLevel.Level()
}

// SetLogger replaces the default logger with a custom logger.
func SetLogger(logger *slog.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()
	DefaultLogger = logger
}

// SetLogFormat configures the default logger to use the specified format.
// The logger writes to os.Stderr and uses the current log level.
func SetLogFormat(format LogFormat) {
	logMutex.Lock()
	defer logMutex.Unlock()
	opts := &slog.HandlerOptions{Level: logLevel}
	switch format {
	case LogFormatJSON:
		DefaultLogger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
	default:
		DefaultLogger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
}

// NewLogger creates a new text logger writing to the given writer.
func NewLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: logLevel}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewJSONLogger creates a new JSON logger writing to the given writer.
func NewJSONLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: logLevel}
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// LogDebug logs a debug message with the given component.
func LogDebug(component Component, msg string, args ...any) {
	logMutex.RLock()
	logger := DefaultLogger
	logMutex.RUnlock()
	logger.Debug(msg, append([]any{"component", string(component)}, args...)...)
}

// LogInfo logs an info message with the given component.
func LogInfo(component Component, msg string, args ...any) {
	logMutex.RLock()
	logger := DefaultLogger
	logMutex.RUnlock()
	logger.Info(msg, append([]any{"component", string(component)}, args...)...)
}

// LogWarn logs a warning message with the given component.
func LogWarn(component Component, msg string, args ...any) {
	logMutex.RLock()
	logger := DefaultLogger
	logMutex.RUnlock()
	logger.Warn(msg, append([]any{"component", string(component)}, args...)...)
}

// LogError logs an error message with the given component.
func LogError(component Component, msg string, args ...any) {
	logMutex.RLock()
	logger := DefaultLogger
	logMutex.RUnlock()
	logger.Error(msg, append([]any{"component", string(component)}, args...)...)
}

// DeviceLogger is a Component-scoped logger pre-bound to a fixed set of
// attributes — a device's serial number and chip, say — so a driver's
// lifecycle log sites don't have to repeat them on every call. It wraps
// the free LogDebug/LogInfo/LogWarn/LogError functions rather than a raw
// *slog.Logger, so SetLogger/SetLogFormat still retarget its output.
type DeviceLogger struct {
	component Component
	attrs     []any
}

// NewDeviceLogger creates a DeviceLogger scoped to component, with attrs
// prepended to every subsequent call's own arguments.
func NewDeviceLogger(component Component, attrs ...any) *DeviceLogger {
	return &DeviceLogger{component: component, attrs: attrs}
}

func (l *DeviceLogger) args(extra []any) []any {
	return append(append([]any{}, l.attrs...), extra...)
}

// Debug logs a debug message with the logger's bound component and attrs.
func (l *DeviceLogger) Debug(msg string, args ...any) { LogDebug(l.component, msg, l.args(args)...) }

// Info logs an info message with the logger's bound component and attrs.
func (l *DeviceLogger) Info(msg string, args ...any) { LogInfo(l.component, msg, l.args(args)...) }

// Warn logs a warning message with the logger's bound component and attrs.
func (l *DeviceLogger) Warn(msg string, args ...any) { LogWarn(l.component, msg, l.args(args)...) }

// Error logs an error message with the logger's bound component and attrs.
func (l *DeviceLogger) Error(msg string, args ...any) { LogError(l.component, msg, l.args(args)...) }
