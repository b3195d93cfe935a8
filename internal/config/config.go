package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/deadline/internal/priority"
)

const appName = "deadline"

// Config holds every setting the application reads
type Config struct {
	DataDir   string          `yaml:"data_dir" mapstructure:"data_dir"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Reminders RemindersConfig `yaml:"reminders" mapstructure:"reminders"`
	UI        UIConfig        `yaml:"ui" mapstructure:"ui"`
}

// LogConfig configures the rotating log file
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Console    bool   `yaml:"console" mapstructure:"console"`
}

// StorageConfig configures the task database
type StorageConfig struct {
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// RemindersConfig configures local reminders
type RemindersConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Title   string `yaml:"title" mapstructure:"title"`
}

// UIConfig configures the terminal interface
type UIConfig struct {
	DefaultFilter string `yaml:"default_filter" mapstructure:"default_filter"`
}

// Default returns the built-in configuration
func Default() *Config {
	dataDir := defaultDataDir()
	return &Config{
		DataDir: dataDir,
		Log: LogConfig{
			Level:      "info",
			File:       filepath.Join(dataDir, appName+".log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Storage: StorageConfig{
			WriteTimeout: 5 * time.Second,
		},
		Reminders: RemindersConfig{
			Enabled: true,
			Title:   "Task Reminder",
		},
		UI: UIConfig{
			DefaultFilter: string(priority.FilterAll),
		},
	}
}

// Load reads configuration from path, or from the default location when
// path is empty, and applies DEADLINE_* environment overrides. A missing
// default file is not an error.
func Load(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	setDefaults(v, def)

	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// A relocated data dir takes the log file with it unless one was set.
	if cfg.DataDir != def.DataDir && cfg.Log.File == def.Log.File {
		cfg.Log.File = filepath.Join(cfg.DataDir, appName+".log")
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("data_dir", c.DataDir)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.max_age_days", c.Log.MaxAgeDays)
	v.SetDefault("log.console", c.Log.Console)
	v.SetDefault("storage.write_timeout", c.Storage.WriteTimeout)
	v.SetDefault("reminders.enabled", c.Reminders.Enabled)
	v.SetDefault("reminders.title", c.Reminders.Title)
	v.SetDefault("ui.default_filter", c.UI.DefaultFilter)
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Storage.WriteTimeout <= 0 {
		return fmt.Errorf("storage.write_timeout must be positive, got %s", c.Storage.WriteTimeout)
	}
	if _, err := priority.ParseFilter(c.UI.DefaultFilter); err != nil {
		return fmt.Errorf("ui.default_filter: %w", err)
	}
	return nil
}

// DBPath returns the path of the task database
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, appName+".db")
}

// Marshal renders the configuration as YAML
func Marshal(c *Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// DefaultPath returns the path of the user's config file
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", appName+".yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// defaultDataDir follows the XDG data directory, like the database always has
func defaultDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "."+appName)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
