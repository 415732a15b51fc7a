// Package config loads aud profiles: a directory, its selection rules and
// the pipeline of operations to run on it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/core/selection"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
)

// Config represents a complete aud profile
type Config struct {
	// Directory is the music directory the profile works on
	Directory string `mapstructure:"directory" yaml:"directory"`

	Selection selection.Rules `mapstructure:"selection" yaml:"selection"`

	// LogFile receives the user-facing message log of the directory
	LogFile string `mapstructure:"log_file" yaml:"log_file,omitempty"`

	// Pipeline is run in order by "aud run"
	Pipeline []operation.Step `mapstructure:"pipeline" yaml:"pipeline"`

	Media        MediaConfig   `mapstructure:"media" yaml:"media"`
	VerifyCopies bool          `mapstructure:"verify_copies" yaml:"verify_copies"`
	Logging      LoggingConfig `mapstructure:"logging" yaml:"logging"`
	History      HistoryConfig `mapstructure:"history" yaml:"history"`
	Lock         LockConfig    `mapstructure:"lock" yaml:"lock"`
}

// MediaConfig selects the media backend executables
type MediaConfig struct {
	FFmpeg  string        `mapstructure:"ffmpeg" yaml:"ffmpeg"`
	FFprobe string        `mapstructure:"ffprobe" yaml:"ffprobe"`
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig configures diagnostic logging
type LoggingConfig struct {
	Level  string        `mapstructure:"level" yaml:"level"`
	Format string        `mapstructure:"format" yaml:"format"`
	File   LogFileConfig `mapstructure:"file" yaml:"file"`
}

// LogFileConfig configures the rotated diagnostic log file
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// HistoryConfig configures the operation journal
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

// LockConfig configures directory locks
type LockConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.Directory == "" {
		return fmt.Errorf("%w: directory cannot be empty", domain.ErrConfigInvalid)
	}

	if err := c.Selection.Validate(); err != nil {
		return fmt.Errorf("%w: selection: %w", domain.ErrConfigInvalid, err)
	}

	for i, step := range c.Pipeline {
		if _, err := operation.FromStep(step); err != nil {
			return fmt.Errorf("%w: pipeline step %d: %w", domain.ErrConfigInvalid, i+1, err)
		}
	}

	if c.Media.Workers < 0 {
		return fmt.Errorf("%w: media.workers cannot be negative", domain.ErrConfigInvalid)
	}
	if c.Media.Timeout < 0 {
		return fmt.Errorf("%w: media.timeout cannot be negative", domain.ErrConfigInvalid)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: invalid logging level: %s", domain.ErrConfigInvalid, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: invalid logging format: %s", domain.ErrConfigInvalid, c.Logging.Format)
	}
	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		return fmt.Errorf("%w: logging.file.path is required when file logging is enabled", domain.ErrConfigInvalid)
	}

	return nil
}

// Operations builds the pipeline. Every call returns fresh operations,
// so counters of stateful steps start over.
func (c *Config) Operations() ([]operation.Operation, error) {
	ops := make([]operation.Operation, 0, len(c.Pipeline))
	for i, step := range c.Pipeline {
		op, err := operation.FromStep(step)
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// LoggerConfig translates the logging section. Records go to stderr and,
// when enabled, to the rotated file.
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.Config{
		Level:   logger.ParseLevel(c.Logging.Level),
		Format:  logger.ParseFormat(c.Logging.Format),
		Outputs: []logger.OutputConfig{{Type: logger.OutputStderr}},
		File: logger.FileConfig{
			Enabled:    c.Logging.File.Enabled,
			Path:       c.Logging.File.Path,
			MaxSizeMB:  c.Logging.File.MaxSizeMB,
			MaxAgeDays: c.Logging.File.MaxAgeDays,
			MaxBackups: c.Logging.File.MaxBackups,
			Compress:   c.Logging.File.Compress,
		},
	}
	if cfg.File.Enabled {
		cfg.Outputs = append(cfg.Outputs, logger.OutputConfig{Type: logger.OutputFile})
	}
	return cfg
}

// DataDir returns the default directory for the journal and locks
func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "aud")
	}
	return filepath.Join(os.TempDir(), "aud")
}

// HistoryDir returns the journal directory
func (c *Config) HistoryDir() string {
	if c.History.Dir != "" {
		return c.History.Dir
	}
	return DataDir()
}

// LockDir returns the directory holding directory locks
func (c *Config) LockDir() string {
	if c.Lock.Dir != "" {
		return c.Lock.Dir
	}
	return filepath.Join(DataDir(), "locks")
}

// expandPaths resolves ~ and environment variables in every path setting
func (c *Config) expandPaths() {
	for _, p := range []*string{&c.Directory, &c.LogFile, &c.Logging.File.Path, &c.History.Dir, &c.Lock.Dir} {
		if *p != "" {
			*p = ExpandPath(*p)
		}
	}
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
