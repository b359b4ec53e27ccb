package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger is a wrapper around the log.Logger from the charmbracelet/log package.
type Logger struct {
	*log.Logger
}

var (
	logger *Logger
	once   sync.Once
)

// CreateLogger sets up the process logger. Later calls are no-ops.
func CreateLogger(level string) {
	once.Do(func() {
		logger = New(os.Stderr, level)
	})
}

// New builds a standalone logger writing to w.
func New(w io.Writer, level string) *Logger {
	base := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "filestore",
	})
	base.SetLevel(parseLevel(level))
	return &Logger{Logger: base}
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func ensureInitialized() {
	if logger == nil {
		CreateLogger(os.Getenv("LOG_LEVEL"))
	}
}

// Debug logs debug messages if debug logging is enabled.
func Debug(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Debug(msg, keyvals...)
}

// Info logs informational messages.
func Info(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Info(msg, keyvals...)
}

// Warn logs warning messages.
func Warn(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Warn(msg, keyvals...)
}

// Error logs error messages.
func Error(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Error(msg, keyvals...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Fatal(msg, keyvals...)
}

// GetLogger returns the process logger.
func GetLogger() *Logger {
	ensureInitialized()
	return logger
}

// With returns a child logger carrying keyvals on every line.
func With(keyvals ...interface{}) *Logger {
	ensureInitialized()
	return &Logger{Logger: logger.With(keyvals...)}
}
