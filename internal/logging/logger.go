// Package logging wraps log/slog for kboard. Output goes to a rotated file
// because the dashboard owns the terminal; with no file configured every call
// is discarded.
package logging

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
	"k8s.io/klog/v2"
)

// Logger wraps slog.Logger
type Logger struct {
	logger *slog.Logger
}

// LogFormat represents the output format for logs
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Config holds configuration for logger initialization
type Config struct {
	// FilePath is the log file; empty disables logging
	FilePath   string
	Level      slog.Level
	Format     LogFormat
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu           sync.RWMutex
	globalLogger *Logger
	writer       *lumberjack.Logger

	noopLogger = &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
)

// Init replaces the global logger. client-go's klog output is routed to the
// same handler so it never reaches the terminal.
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	_ = closeWriterLocked()

	if config.FilePath == "" {
		globalLogger = noopLogger
		silenceKlog()
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	writer = &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAgeDays,
		Compress:   true,
	}

	opts := &slog.HandlerOptions{Level: config.Level}
	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	globalLogger = &Logger{logger: slog.New(handler)}
	klog.SetSlogLogger(globalLogger.logger.With("source", "client-go"))
	return nil
}

// silenceKlog stops klog from writing to stderr
func silenceKlog() {
	klog.ClearLogger()
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	_ = fs.Set("logtostderr", "false")
	_ = fs.Set("alsologtostderr", "false")
	_ = fs.Set("stderrthreshold", "FATAL")
	klog.SetOutput(io.Discard)
}

// Get returns the global logger, or a noop logger before Init
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger == nil {
		return noopLogger
	}
	return globalLogger
}

func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// With returns a Logger that adds args to every record
func (l *Logger) With(args ...any) *Logger {
	if l == noopLogger {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// IsEnabled reports whether records are written anywhere
func (l *Logger) IsEnabled() bool {
	return l != noopLogger
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

// IsEnabled reports whether the global logger writes anywhere
func IsEnabled() bool {
	return Get().IsEnabled()
}

// ParseLevel converts a level name to slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// ParseFormat converts a format name to LogFormat
func ParseFormat(format string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", format)
	}
}

// Shutdown closes the log file and reverts to the noop logger
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = noopLogger
	silenceKlog()
	return closeWriterLocked()
}

func closeWriterLocked() error {
	if writer == nil {
		return nil
	}
	err := writer.Close()
	writer = nil
	return err
}
