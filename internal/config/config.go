// Package config loads planr configuration from the user config file, a
// project override and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Generation backends.
const (
	BackendStub      = "stub"
	BackendAnthropic = "anthropic"
	BackendBedrock   = "bedrock"
)

// ProjectConfigName is the file searched for in the working directory and its parents.
const ProjectConfigName = ".planr.yaml"

// EnvPrefix prefixes environment overrides, e.g. PLANR_LOG_LEVEL.
const EnvPrefix = "PLANR"

// ErrUnknownBackend is returned by Validate for an unsupported generation backend.
var ErrUnknownBackend = errors.New("unknown generation backend")

// Config holds all configuration for planr.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Generation GenerationConfig `mapstructure:"generation"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	AWS        AWSConfig        `mapstructure:"aws"`
	Mirror     MirrorConfig     `mapstructure:"mirror"`
	Cleanup    CleanupConfig    `mapstructure:"cleanup"`
	Log        LogConfig        `mapstructure:"log"`
}

// DatabaseConfig selects the entity store.
type DatabaseConfig struct {
	// Path is the SQLite file. Empty means .planr/state.db under the project root.
	Path string `mapstructure:"path"`
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `mapstructure:"driver"`
}

// GenerationConfig selects the text generation capability.
type GenerationConfig struct {
	Backend string        `mapstructure:"backend"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// AWSConfig holds Bedrock settings.
type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// MirrorConfig points at the shared-task mirror. An empty endpoint disables it.
type MirrorConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
}

// CleanupConfig sizes the background worktree cleanup pool.
type CleanupConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	// File is the log destination. Empty means .planr/logs/planr.log, "-" means stderr.
	File string `mapstructure:"file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, PLANR_*)
// 2. Project config (.planr.yaml in current directory or parent)
// 3. User config (~/.config/planr/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return decode(v)
}

// LoadFromPath loads configuration from a specific file on top of the defaults.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY", EnvPrefix+"_ANTHROPIC_API_KEY")
	_ = v.BindEnv("aws.region", EnvPrefix+"_AWS_REGION", "AWS_REGION")
	_ = v.BindEnv("aws.profile", EnvPrefix+"_AWS_PROFILE", "AWS_PROFILE")
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Mirror.Token = expandEnv(cfg.Mirror.Token)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Generation.Backend {
	case BackendStub, BackendAnthropic, BackendBedrock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Generation.Backend)
	}
	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Generation.Timeout < 0 {
		return fmt.Errorf("generation.timeout must not be negative, got %s", c.Generation.Timeout)
	}
	if c.Cleanup.Workers < 1 {
		return fmt.Errorf("cleanup.workers must be at least 1, got %d", c.Cleanup.Workers)
	}
	if c.Cleanup.QueueSize < 1 {
		return fmt.Errorf("cleanup.queue_size must be at least 1, got %d", c.Cleanup.QueueSize)
	}
	return nil
}

// DatabasePath resolves the database file for a project root.
func (c *Config) DatabasePath(projectRoot string) string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(projectRoot, ".planr", "state.db")
}

// LogPath resolves the log file for a project root. It returns "" for stderr.
func (c *Config) LogPath(projectRoot string) string {
	switch c.Log.File {
	case "-":
		return ""
	case "":
		return filepath.Join(projectRoot, ".planr", "logs", "planr.log")
	default:
		return c.Log.File
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.driver", d.Database.Driver)

	v.SetDefault("generation.backend", d.Generation.Backend)
	v.SetDefault("generation.model", d.Generation.Model)
	v.SetDefault("generation.timeout", d.Generation.Timeout.String())

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "")

	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")

	v.SetDefault("mirror.endpoint", "")
	v.SetDefault("mirror.token", "")

	v.SetDefault("cleanup.workers", d.Cleanup.Workers)
	v.SetDefault("cleanup.queue_size", d.Cleanup.QueueSize)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// getUserConfigDir returns the XDG config directory for planr.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "planr")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "planr")
	}
	return filepath.Join(home, ".config", "planr")
}

// findProjectConfig searches for .planr.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Generation: GenerationConfig{
			Backend: BackendStub,
			Model:   "claude-sonnet-4-20250514",
			Timeout: 2 * time.Minute,
		},
		Cleanup: CleanupConfig{
			Workers:   2,
			QueueSize: 64,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
