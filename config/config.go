// Package config loads Argus service configuration through viper and
// defines the detection defaults. Service configuration (paths, sinks,
// enrichment, monitoring) comes from argus.yaml and ARGUS_* environment
// variables; detection thresholds additionally have persisted overrides
// in the store, merged over these defaults before each evaluation pass.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Threshold keys understood by the detection engine.
const (
	KeyBruteForceCount         = "brute_force_count"
	KeyRepeatedFailedThreshold = "repeated_failed_threshold"
	KeyUnknownIPSpikeThreshold = "unknown_ip_spike_threshold"
)

// Documented detection defaults, applied when no override is configured.
const (
	DefaultBruteForceCount         = 10
	DefaultRepeatedFailedThreshold = 5
	DefaultUnknownIPSpikeThreshold = 15
)

// DefaultThresholds returns a fresh copy of the documented defaults.
func DefaultThresholds() map[string]int {
	return map[string]int{
		KeyBruteForceCount:         DefaultBruteForceCount,
		KeyRepeatedFailedThreshold: DefaultRepeatedFailedThreshold,
		KeyUnknownIPSpikeThreshold: DefaultUnknownIPSpikeThreshold,
	}
}

// MergeThresholds overlays persisted overrides on the defaults. Unknown
// keys in the overrides are ignored; missing keys keep their default.
func MergeThresholds(overrides map[string]int) map[string]int {
	merged := DefaultThresholds()
	for key := range merged {
		if value, ok := overrides[key]; ok && value > 0 {
			merged[key] = value
		}
	}
	return merged
}

// Config holds all configuration for the Argus service
type Config struct {
	DataPaths struct {
		// DataDir is the base data directory (ARGUS_DATA_PATHS_DATA_DIR)
		DataDir string `mapstructure:"data_dir"`
		// SQLitePath is the database file path; empty derives from DataDir
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"data_paths"`

	Detection struct {
		// Window is the trailing duration for rule counters
		Window time.Duration `mapstructure:"window"`
		// CorrelationWindow is the trailing duration for signal fusion
		CorrelationWindow time.Duration `mapstructure:"correlation_window"`
		// RiskWindow is the trailing duration for risk snapshots
		RiskWindow time.Duration `mapstructure:"risk_window"`
	} `mapstructure:"detection"`

	Notifications struct {
		Redis struct {
			Enabled  bool   `mapstructure:"enabled"`
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
			Channel  string `mapstructure:"channel"`
		} `mapstructure:"redis"`
		Webhook struct {
			Enabled bool          `mapstructure:"enabled"`
			URL     string        `mapstructure:"url"`
			Timeout time.Duration `mapstructure:"timeout"`
		} `mapstructure:"webhook"`
		// MinSeverity filters fan-out (Low, Medium, High, Critical)
		MinSeverity string `mapstructure:"min_severity"`
	} `mapstructure:"notifications"`

	Enrichment struct {
		Enabled bool `mapstructure:"enabled"`
		// BaseURL of the geo lookup service
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
		// RequestsPerSecond caps outbound lookups
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		CacheSize         int     `mapstructure:"cache_size"`
	} `mapstructure:"enrichment"`

	Monitor struct {
		// PollInterval is how often tailed lines are flushed as a batch
		PollInterval time.Duration `mapstructure:"poll_interval"`
	} `mapstructure:"monitor"`

	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `mapstructure:"level"`
		// Development enables human-readable console output
		Development bool `mapstructure:"development"`
	} `mapstructure:"logging"`
}

// setDefaults registers every default with viper.
func setDefaults() {
	viper.SetDefault("data_paths.data_dir", "./data")
	viper.SetDefault("data_paths.sqlite_path", "") // Empty = derive from data_dir

	viper.SetDefault("detection.window", 10*time.Minute)
	viper.SetDefault("detection.correlation_window", 120*time.Second)
	viper.SetDefault("detection.risk_window", 10*time.Minute)

	viper.SetDefault("notifications.redis.enabled", false)
	viper.SetDefault("notifications.redis.addr", "localhost:6379")
	viper.SetDefault("notifications.redis.password", "")
	viper.SetDefault("notifications.redis.db", 0)
	viper.SetDefault("notifications.redis.channel", "argus:alerts")
	viper.SetDefault("notifications.webhook.enabled", false)
	viper.SetDefault("notifications.webhook.url", "")
	viper.SetDefault("notifications.webhook.timeout", 10*time.Second)
	viper.SetDefault("notifications.min_severity", "Low")

	viper.SetDefault("enrichment.enabled", false)
	viper.SetDefault("enrichment.base_url", "http://ip-api.com/json")
	viper.SetDefault("enrichment.timeout", 5*time.Second)
	viper.SetDefault("enrichment.requests_per_second", 1.0)
	viper.SetDefault("enrichment.cache_size", 1024)

	viper.SetDefault("monitor.poll_interval", 2*time.Second)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.development", false)
}

// Load reads configuration from argus.yaml (optional) and ARGUS_*
// environment variables, falling back to defaults for everything unset.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("argus")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/argus")

	viper.SetEnvPrefix("ARGUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DataPaths.SQLitePath == "" {
		cfg.DataPaths.SQLitePath = cfg.DataPaths.DataDir + "/argus.db"
	}
	return &cfg, nil
}
