package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger handles leveled logging to the console with optional file output.
// Debug messages reach the console only in verbose mode but always reach the
// log file.
type Logger struct {
	Verbose bool

	mu      sync.Mutex
	console *log.Logger
	errs    *log.Logger
	file    *log.Logger
	sink    *lumberjack.Logger
}

// New creates a new Logger writing to stdout, and errors to stderr.
func New(verbose bool) *Logger {
	return newLogger(verbose, os.Stdout, os.Stderr)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return newLogger(false, io.Discard, io.Discard)
}

func newLogger(verbose bool, out, errOut io.Writer) *Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	return &Logger{
		Verbose: verbose,
		console: log.NewWithOptions(out, log.Options{
			Level:           level,
			ReportTimestamp: verbose,
			TimeFormat:      time.Kitchen,
		}),
		errs: log.NewWithOptions(errOut, log.Options{
			Level:           log.ErrorLevel,
			ReportTimestamp: verbose,
			TimeFormat:      time.Kitchen,
		}),
	}
}

// SetFileLog enables logging to a size-rotated file. maxSizeMB and maxFiles
// fall back to lumberjack's defaults when zero.
func (l *Logger) SetFileLog(path string, maxSizeMB, maxFiles int) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	f.Close()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sink != nil {
		l.sink.Close()
	}
	l.sink = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxFiles,
	}
	l.file = log.NewWithOptions(l.sink, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       log.LogfmtFormatter,
	})
	return nil
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sink != nil {
		err := l.sink.Close()
		l.sink = nil
		l.file = nil
		return err
	}
	return nil
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.console.Infof(format, args...)
	l.toFile(log.InfoLevel, format, args...)
}

// Debug logs detailed messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.console.Debugf(format, args...)
	l.toFile(log.DebugLevel, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.console.Warnf(format, args...)
	l.toFile(log.WarnLevel, format, args...)
}

// Error logs error messages to stderr
func (l *Logger) Error(format string, args ...interface{}) {
	l.errs.Errorf(format, args...)
	l.toFile(log.ErrorLevel, format, args...)
}

func (l *Logger) toFile(level log.Level, format string, args ...interface{}) {
	l.mu.Lock()
	file := l.file
	l.mu.Unlock()

	if file != nil {
		file.Logf(level, format, args...)
	}
}
