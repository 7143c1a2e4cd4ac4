// Package logger is the process-wide run log.
//
// Nothing is written until Init is called, so library code may log freely
// from tests.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	globalLogger *logrus.Logger
	logFile      *os.File
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = newLogger(f)
	return nil
}

// InitWriter points the logger at w. Used by tests and by --verbose.
func InitWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = newLogger(w)
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
	return l
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger = nil
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	logf(logrus.InfoLevel, format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	logf(logrus.DebugLevel, format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	logf(logrus.ErrorLevel, format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	logf(logrus.WarnLevel, format, v...)
}

// WithFields logs msg at info level with structured fields attached.
func WithFields(fields map[string]interface{}, msg string) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.WithFields(logrus.Fields(fields)).Info(msg)
	}
}

func logf(level logrus.Level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Logf(level, format, v...)
	}
}

// GetWriter returns the underlying writer for use by drivers.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		return globalLogger.Out
	}
	return io.Discard
}

// SetLevel sets the minimum level by name (debug, info, warn, error).
func SetLevel(name string) error {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		globalLogger.SetLevel(level)
	}
	return nil
}

// SetOutput redirects the current logger to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		globalLogger.SetOutput(w)
	}
}
