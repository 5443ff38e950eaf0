// Package config provides Viper-based hierarchical configuration management:
// defaults, then an optional config.yaml, then LEDGERSYNC_* environment
// variables. API keys always come from unprefixed environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// PlatformConfig holds the connection settings for one external platform.
type PlatformConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"-"` // never serialize API keys
}

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	AI struct {
		Enabled             bool    `mapstructure:"enabled" yaml:"enabled"`
		Model               string  `mapstructure:"model" yaml:"model"`
		TimeoutSeconds      int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
		APIKey              string  `mapstructure:"api_key" yaml:"-"`
	} `mapstructure:"ai" yaml:"ai"`

	Platforms struct {
		Property PlatformConfig `mapstructure:"property" yaml:"property"`
		Bank     PlatformConfig `mapstructure:"bank" yaml:"bank"`
		Ledger   struct {
			PlatformConfig `mapstructure:",squash" yaml:",inline"`
			BusinessID     string `mapstructure:"business_id" yaml:"business_id"`
		} `mapstructure:"ledger" yaml:"ledger"`
		VendorFeedDir string `mapstructure:"vendor_feed_dir" yaml:"vendor_feed_dir"`
	} `mapstructure:"platforms" yaml:"platforms"`

	Proxy struct {
		Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
		URL       string `mapstructure:"url" yaml:"url"`
		StatusURL string `mapstructure:"status_url" yaml:"status_url"`
	} `mapstructure:"proxy" yaml:"proxy"`

	Sync struct {
		AccountWorkers   int `mapstructure:"account_workers" yaml:"account_workers"`
		RequestTimeout   int `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`
		RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	} `mapstructure:"sync" yaml:"sync"`

	Data struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"data" yaml:"data"`
}

// Load initializes Viper configuration with hierarchical loading.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.ledger-sync")
	v.AddConfigPath(".ledger-sync")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEDGERSYNC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file invalid is not fatal: continue with defaults and env.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// API keys bind to unprefixed env vars so credentials never live in
	// config files.
	bindings := map[string]string{
		"ai.api_key":                 "GEMINI_API_KEY",
		"platforms.property.api_key": "PROPERTY_API_KEY",
		"platforms.bank.api_key":     "BANK_API_KEY",
		"platforms.ledger.api_key":   "LEDGER_API_KEY",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			fmt.Printf("Warning: failed to bind %s environment variable: %v\n", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.confidence_threshold", 0.70)

	v.SetDefault("platforms.property.base_url", "https://api.propertyledger.example.com/v1")
	v.SetDefault("platforms.bank.base_url", "https://api.bank.example.com/v2")
	v.SetDefault("platforms.ledger.base_url", "https://api.ledger.example.com/v1")
	v.SetDefault("platforms.vendor_feed_dir", "feeds")

	v.SetDefault("proxy.enabled", false)
	v.SetDefault("proxy.url", "")
	v.SetDefault("proxy.status_url", "")

	v.SetDefault("sync.account_workers", 4)
	v.SetDefault("sync.request_timeout_seconds", 30)
	v.SetDefault("sync.retry_max_attempts", 3)

	v.SetDefault("data.directory", "data")
}

func validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}

	if cfg.AI.ConfidenceThreshold < 0 || cfg.AI.ConfidenceThreshold > 1 {
		return fmt.Errorf("ai.confidence_threshold must be in [0,1], got %v", cfg.AI.ConfidenceThreshold)
	}

	if cfg.Sync.AccountWorkers < 1 {
		return fmt.Errorf("sync.account_workers must be at least 1, got %d", cfg.Sync.AccountWorkers)
	}

	if cfg.Proxy.Enabled && cfg.Proxy.URL == "" {
		return fmt.Errorf("proxy.enabled is set but proxy.url is empty")
	}

	return nil
}
