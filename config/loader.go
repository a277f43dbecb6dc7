package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. PLAYSCRAPER_OUTPUT_DIR.
const EnvPrefix = "PLAYSCRAPER"

// Load resolves configuration from v.
// Priority (highest to lowest): bound flags > env vars > config file > defaults.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if v == nil {
		v = viper.New()
	}

	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("playscraper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("suggest_url", cfg.SuggestURL)
	v.SetDefault("suggest_language", cfg.SuggestLanguage)
	v.SetDefault("suggest_country", cfg.SuggestCountry)
	v.SetDefault("user_agent", cfg.UserAgent)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("probe_timeout", cfg.ProbeTimeout)
	v.SetDefault("delay", cfg.Delay)
	v.SetDefault("probe_cache_size", cfg.ProbeCacheSize)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("store", cfg.Store)
	v.SetDefault("sqlite_path", cfg.SQLitePath)
	v.SetDefault("date_order", cfg.DateOrder)
	v.SetDefault("layout", cfg.Layout)
	v.SetDefault("categories_file", cfg.CategoriesFile)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("verbose", cfg.Verbose)
}
