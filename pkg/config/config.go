package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrisonrobin/dayplan/pkg/planner"
	"github.com/harrisonrobin/dayplan/pkg/store"
	"github.com/harrisonrobin/dayplan/pkg/template"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "dayplan"
	configFile = "config.yaml"
	envPrefix  = "DAYPLAN"

	DefaultCalendar = "Tasks"
)

// Config is the user configuration. Every field can be overridden with a
// DAYPLAN_ environment variable, e.g. DAYPLAN_LOG_LEVEL for log.level.
type Config struct {
	// TasksFile is the JSON task list.
	TasksFile string `mapstructure:"tasks_file" yaml:"tasks_file"`
	// TemplateFile is the JSON day template.
	TemplateFile string `mapstructure:"template_file" yaml:"template_file"`
	// Mode is the default planning mode: "normal" or "relaxed".
	Mode string `mapstructure:"mode" yaml:"mode"`
	// Calendar is the Google Calendar name plans are pushed to.
	Calendar string    `mapstructure:"calendar" yaml:"calendar"`
	Log      LogConfig `mapstructure:"log" yaml:"log"`
}

type LogConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" yaml:"level"`
	// File receives JSON logs; empty means text logs on stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		TasksFile:    store.DefaultFile,
		TemplateFile: template.DefaultFile,
		Mode:         string(planner.Normal),
		Calendar:     DefaultCalendar,
		Log:          LogConfig{Level: "WARN"},
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("tasks_file", d.TasksFile)
	v.SetDefault("template_file", d.TemplateFile)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("calendar", d.Calendar)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// ConfigDir is $XDG_CONFIG_HOME/dayplan, falling back to ~/.config/dayplan.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// NewViper returns a viper instance with defaults and env binding. When path
// is empty the default config location is used. A missing file is not an
// error.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return v, nil
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return v, nil
}

// Load reads the configuration at path (or the default path) and validates it.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later in a less obvious
// place.
func (c *Config) Validate() error {
	if _, err := planner.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config mode: %w", err)
	}
	if c.TasksFile == "" {
		return errors.New("config tasks_file must not be empty")
	}
	if c.TemplateFile == "" {
		return errors.New("config template_file must not be empty")
	}
	return nil
}

// Save writes cfg as YAML to path, or to the default path when empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
