// Package config loads hunter's settings from an optional YAML file and
// HUNTER_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the full set of settings.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Provider  ProviderConfig  `mapstructure:"provider" yaml:"provider"`
	Crawl     CrawlConfig     `mapstructure:"crawl" yaml:"crawl"`
	Retry     RetryConfig     `mapstructure:"retry" yaml:"retry"`
	Automaton AutomatonConfig `mapstructure:"automaton" yaml:"automaton"`
	Export    ExportConfig    `mapstructure:"export" yaml:"export"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // "console" or "json"
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type ProviderConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	BearerToken       string        `mapstructure:"bearer_token" yaml:"bearer_token"`
	ConsumerKey       string        `mapstructure:"consumer_key" yaml:"consumer_key"`
	ConsumerSecret    string        `mapstructure:"consumer_secret" yaml:"consumer_secret"`
	RequestsPerWindow int           `mapstructure:"requests_per_window" yaml:"requests_per_window"`
	Window            time.Duration `mapstructure:"window" yaml:"window"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type CrawlConfig struct {
	PageSize     int    `mapstructure:"page_size" yaml:"page_size"`
	CreatedAfter string `mapstructure:"created_after" yaml:"created_after"`
	MaxFollowers int    `mapstructure:"max_followers" yaml:"max_followers"`
}

// Cutoff parses CreatedAfter.
func (c CrawlConfig) Cutoff() (time.Time, error) {
	t, err := dateparse.ParseIn(c.CreatedAfter, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("crawl.created_after: %w", err)
	}
	return t, nil
}

type RetryConfig struct {
	TransientDelay time.Duration `mapstructure:"transient_delay" yaml:"transient_delay"`
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay" yaml:"rate_limit_delay"`
}

type AutomatonConfig struct {
	MaxRounds int `mapstructure:"max_rounds" yaml:"max_rounds"`
}

type ExportConfig struct {
	MinWeight float64 `mapstructure:"min_weight" yaml:"min_weight"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// SetDefaults initializes default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", false)

	v.SetDefault("provider.base_url", "https://api.twitter.com")
	v.SetDefault("provider.bearer_token", "")
	v.SetDefault("provider.consumer_key", "")
	v.SetDefault("provider.consumer_secret", "")
	v.SetDefault("provider.requests_per_window", 15)
	v.SetDefault("provider.window", 15*time.Minute)
	v.SetDefault("provider.timeout", 30*time.Second)

	v.SetDefault("crawl.page_size", 200)
	v.SetDefault("crawl.created_after", "2011-01-01")
	v.SetDefault("crawl.max_followers", 5000)

	v.SetDefault("retry.transient_delay", 5*time.Minute)
	v.SetDefault("retry.rate_limit_delay", 6*time.Minute)

	v.SetDefault("automaton.max_rounds", 0)
	v.SetDefault("export.min_weight", 1.0)
	v.SetDefault("metrics.addr", "")
}

// NewDefaultConfig returns the configuration with every default applied.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load reads path (or hunter.yaml in the working directory or
// ~/.config/hunter when path is empty), applies HUNTER_ environment
// overrides and validates the result. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "hunter"))
		}
		v.SetConfigName("hunter")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("HUNTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Database.Path, &c.Logger.LogFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for sane values. Provider credentials
// are checked separately by ValidateProvider.
func (c *Config) Validate() error {
	if c.Crawl.PageSize < 1 || c.Crawl.PageSize > 200 {
		return fmt.Errorf("crawl.page_size must be between 1 and 200, got %d", c.Crawl.PageSize)
	}
	if c.Crawl.MaxFollowers < 0 {
		return fmt.Errorf("crawl.max_followers must not be negative")
	}
	if _, err := c.Crawl.Cutoff(); err != nil {
		return err
	}
	if c.Retry.TransientDelay < 0 || c.Retry.RateLimitDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if c.Provider.RequestsPerWindow < 0 || c.Provider.Window < 0 {
		return fmt.Errorf("provider request budget must not be negative")
	}
	if c.Automaton.MaxRounds < 0 {
		return fmt.Errorf("automaton.max_rounds must not be negative")
	}
	if c.Export.MinWeight < 0 {
		return fmt.Errorf("export.min_weight must not be negative")
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	return nil
}

// ValidateProvider checks that some form of provider credentials is set.
func (c *Config) ValidateProvider() error {
	p := c.Provider
	if p.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if p.BearerToken == "" && (p.ConsumerKey == "" || p.ConsumerSecret == "") {
		return fmt.Errorf("provider.bearer_token or provider.consumer_key and provider.consumer_secret must be set")
	}
	return nil
}
