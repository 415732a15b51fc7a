package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger is a Logger over log/slog. It owns the writers it opened.
type SlogLogger struct {
	core
	writers []io.WriteCloser
}

// core is shared by the root logger and its children. Children do not own
// writers, so shutting one down never closes the file under the root.
type core struct {
	logger    *slog.Logger
	sanitizer *Sanitizer
}

// NewSlogLogger builds a logger writing to every configured output
func NewSlogLogger(config Config) (*SlogLogger, error) {
	var writers []io.Writer
	var closeable []io.WriteCloser

	for _, output := range config.Outputs {
		switch output.Type {
		case OutputStdout, OutputStderr:
			w := output.Writer
			if w == nil {
				w = os.Stdout
				if output.Type == OutputStderr {
					w = os.Stderr
				}
			}
			writers = append(writers, w)
			if wc, ok := w.(io.WriteCloser); ok && !isStdStream(wc) {
				closeable = append(closeable, wc)
			}
		case OutputFile:
			if !config.File.Enabled {
				continue
			}
			fw, err := createFileWriter(config.File)
			if err != nil {
				for _, c := range closeable {
					c.Close()
				}
				return nil, fmt.Errorf("failed to create file writer: %w", err)
			}
			writers = append(writers, fw)
			closeable = append(closeable, fw)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	opts := &slog.HandlerOptions{Level: convertLevel(config.Level)}
	out := io.MultiWriter(writers...)

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &SlogLogger{
		core:    core{logger: slog.New(handler), sanitizer: NewSanitizer()},
		writers: closeable,
	}, nil
}

func isStdStream(w io.WriteCloser) bool {
	return w == os.Stdout || w == os.Stderr || w == os.Stdin
}

// createFileWriter opens a size-rotated log file with lumberjack
func createFileWriter(config FileConfig) (io.WriteCloser, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("log file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxAge:     config.MaxAgeDays,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}, nil
}

func convertLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c core) log(level slog.Level, msg string, args []any) {
	if !c.logger.Enabled(context.Background(), level) {
		return
	}
	c.logger.Log(context.Background(), level, c.sanitizer.Sanitize(msg), c.sanitizer.SanitizeArgs(args)...)
}

func (c core) Debug(msg string, args ...any) { c.log(slog.LevelDebug, msg, args) }
func (c core) Info(msg string, args ...any)  { c.log(slog.LevelInfo, msg, args) }
func (c core) Warn(msg string, args ...any)  { c.log(slog.LevelWarn, msg, args) }
func (c core) Error(msg string, args ...any) { c.log(slog.LevelError, msg, args) }

// With returns a child logger carrying args on every record
func (c core) With(args ...any) Logger {
	return &childLogger{core{
		logger:    c.logger.With(c.sanitizer.SanitizeArgs(args)...),
		sanitizer: c.sanitizer,
	}}
}

// Sync is a no-op: slog handlers write through and lumberjack does not buffer
func (c core) Sync() error {
	return nil
}

// Shutdown closes the writers opened by NewSlogLogger
func (l *SlogLogger) Shutdown() error {
	var lastErr error
	for _, w := range l.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	l.writers = nil
	return lastErr
}

type childLogger struct {
	core
}

func (c *childLogger) Shutdown() error {
	return nil
}
