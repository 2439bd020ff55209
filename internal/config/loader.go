package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader reads configuration from file and environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName("ctxhub")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.ctxhub")
	v.SetEnvPrefix("CTXHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load reads the configuration. An explicit path overrides the search
// paths; a missing file is not an error and yields the defaults.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	l.setDefaults(cfg)

	if path != "" {
		l.v.SetConfigFile(path)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Watch reloads the configuration whenever the config file changes and
// hands the result to onChange. Unmarshal failures are reported through
// onErr and the previous configuration stays in effect.
func (l *Loader) Watch(onChange func(*Config), onErr func(error)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		cfg := DefaultConfig()
		if err := l.v.Unmarshal(cfg); err != nil {
			if onErr != nil {
				onErr(fmt.Errorf("reload config: %w", err))
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) setDefaults(cfg *Config) {
	l.v.SetDefault("data_dir", cfg.DataDir)
	l.v.SetDefault("logging.level", cfg.Logging.Level)
	l.v.SetDefault("logging.console", cfg.Logging.Console)
	l.v.SetDefault("embedding.model", cfg.Embedding.Model)
	l.v.SetDefault("memory.db_file", cfg.Memory.DBFile)
	l.v.SetDefault("memory.top_k", cfg.Memory.TopK)
	l.v.SetDefault("memory.k_rrf", cfg.Memory.KRRF)
	l.v.SetDefault("memory.overfetch", cfg.Memory.Overfetch)
	l.v.SetDefault("agenda.db_file", cfg.Agenda.DBFile)
	l.v.SetDefault("maintenance.enabled", cfg.Maintenance.Enabled)
	l.v.SetDefault("maintenance.schedule", cfg.Maintenance.Schedule)
}
