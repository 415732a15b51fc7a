package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Ning0612/aud/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. AUD_MEDIA_WORKERS
const EnvPrefix = "AUD"

// DefaultConfigPaths returns the default paths to search for aud.yaml
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "aud"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "aud"))
		paths = append(paths, filepath.Join(homeDir, ".aud"))
	}

	return paths
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("directory", ".")
	v.SetDefault("log_file", "")
	v.SetDefault("verify_copies", false)
	v.SetDefault("media.ffmpeg", "ffmpeg")
	v.SetDefault("media.ffprobe", "ffprobe")
	v.SetDefault("media.workers", 1)
	v.SetDefault("media.timeout", 10*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size_mb", 10)
	v.SetDefault("logging.file.max_age_days", 30)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.compress", false)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dir", "")
	v.SetDefault("lock.dir", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for aud.yaml.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("aud")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
