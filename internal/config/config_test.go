package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
)

const profile = `
directory: /music/album
selection:
  extensions: [WAV, .flac, wav]
  allow:
    names: [intro.mp3]
  deny:
    pattern: "demo"
    globs: ["*.bak.*"]
log_file: /music/album/aud.log
pipeline:
  - op: name.replace_spaces
  - op: name.iterate
    zerofill: 2
    separator: "-"
  - op: afx.normalize
  - op: convert.format
    format: flac
    sample_rate: 48000
    bit_depth: 24
media:
  workers: 4
  timeout: 30s
logging:
  level: debug
  format: json
`

func TestLoadFromString(t *testing.T) {
	cfg, err := LoadFromString(profile)
	require.NoError(t, err)

	assert.Equal(t, "/music/album", cfg.Directory)
	assert.Equal(t, []string{"WAV", ".flac", "wav"}, cfg.Selection.Extensions)
	assert.Equal(t, []string{"intro.mp3"}, cfg.Selection.Allow.Names)
	assert.Equal(t, "demo", cfg.Selection.Deny.Pattern)
	assert.Equal(t, []string{"*.bak.*"}, cfg.Selection.Deny.Globs)
	assert.Equal(t, "/music/album/aud.log", cfg.LogFile)
	assert.Len(t, cfg.Pipeline, 4)

	assert.Equal(t, 4, cfg.Media.Workers)
	assert.Equal(t, 30*time.Second, cfg.Media.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromString_Defaults(t *testing.T) {
	cfg, err := LoadFromString("directory: /music\n")
	require.NoError(t, err)

	assert.Equal(t, "ffmpeg", cfg.Media.FFmpeg)
	assert.Equal(t, "ffprobe", cfg.Media.FFprobe)
	assert.Equal(t, 1, cfg.Media.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Media.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.File.MaxSizeMB)
	assert.True(t, cfg.History.Enabled)
	assert.False(t, cfg.VerifyCopies)
	assert.Empty(t, cfg.Pipeline)
}

func TestLoadFromString_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		is   error
	}{
		{"malformed yaml", "directory: [", domain.ErrConfigInvalid},
		{"unknown op", "directory: /m\npipeline:\n  - op: name.shout\n", domain.ErrInvalidOperation},
		{"bad step params", "directory: /m\npipeline:\n  - op: fs.copy\n", domain.ErrInvalidOperation},
		{"bad bit depth", "directory: /m\npipeline:\n  - op: convert.format\n    format: wav\n    bit_depth: 12\n", domain.ErrUnsupportedBitDepth},
		{"bad pattern", "directory: /m\nselection:\n  allow:\n    pattern: \"(\"\n", domain.ErrInvalidPattern},
		{"negative workers", "directory: /m\nmedia:\n  workers: -1\n", domain.ErrConfigInvalid},
		{"bad level", "directory: /m\nlogging:\n  level: loud\n", domain.ErrConfigInvalid},
		{"bad format", "directory: /m\nlogging:\n  format: xml\n", domain.ErrConfigInvalid},
		{"file logging without path", "directory: /m\nlogging:\n  file:\n    enabled: true\n", domain.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.yaml)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfigInvalid)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aud.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/music/album", cfg.Directory)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aud.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))
	t.Setenv("AUD_MEDIA_WORKERS", "8")
	t.Setenv("AUD_VERIFY_COPIES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Media.Workers)
	assert.True(t, cfg.VerifyCopies)
}

func TestOperations(t *testing.T) {
	cfg, err := LoadFromString(profile)
	require.NoError(t, err)

	ops, err := cfg.Operations()
	require.NoError(t, err)
	require.Len(t, ops, 4)

	assert.Equal(t, operation.ReplaceSpaces{With: "_"}, ops[0])
	assert.Equal(t, operation.Normalize{HeadroomDB: operation.DefaultHeadroomDB, Passes: 1}, ops[2])
	conv, ok := ops[3].(operation.ConvertFormat)
	require.True(t, ok)
	assert.Equal(t, "flac", conv.Format)
	assert.Equal(t, 48000, conv.SampleRate)
	assert.Equal(t, 24, conv.BitDepth)

	iter, ok := ops[1].(*operation.Iterate)
	require.True(t, ok)
	assert.Equal(t, []string{"01-a.wav"}, domain.Names(iter.Apply(domain.NewFile("/m/a.wav"))))
	assert.Equal(t, 2, iter.Next())

	again, err := cfg.Operations()
	require.NoError(t, err)
	assert.Equal(t, 1, again[1].(*operation.Iterate).Next(), "counters start over for every build")
}

func TestLoggerConfig(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{
		Level:  "warn",
		Format: "json",
		File:   LogFileConfig{Enabled: true, Path: "/var/log/aud.log", MaxSizeMB: 5},
	}}

	lc := cfg.LoggerConfig()
	assert.Equal(t, logger.LevelWarn, lc.Level)
	assert.Equal(t, logger.FormatJSON, lc.Format)
	require.Len(t, lc.Outputs, 2)
	assert.Equal(t, logger.OutputStderr, lc.Outputs[0].Type)
	assert.Equal(t, logger.OutputFile, lc.Outputs[1].Type)
	assert.Equal(t, "/var/log/aud.log", lc.File.Path)
	assert.Equal(t, 5, lc.File.MaxSizeMB)
}

func TestDirs(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DataDir(), cfg.HistoryDir())
	assert.Equal(t, filepath.Join(DataDir(), "locks"), cfg.LockDir())

	cfg.History.Dir = "/data/history"
	cfg.Lock.Dir = "/data/locks"
	assert.Equal(t, "/data/history", cfg.HistoryDir())
	assert.Equal(t, "/data/locks", cfg.LockDir())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("AUD_TEST_ROOT", "/srv")

	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "music"), ExpandPath("~/music"))
	assert.Equal(t, "/srv/music", ExpandPath("$AUD_TEST_ROOT/music"))
	assert.Equal(t, "/a/b", ExpandPath("/a//b/"))
}
