package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Mode selects what a run does.
type Mode string

const (
	ModeSuggest    Mode = "s"
	ModeSearch     Mode = "r"
	ModeDeveloper  Mode = "d"
	ModeCategories Mode = "f"
	ModeConvert    Mode = "c"
)

// ParseMode maps the command-line mode selector to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSuggest, ModeSearch, ModeDeveloper, ModeCategories, ModeConvert:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q: want s, r, d, f or c", s)
	}
}

// CategoriesBatch is the batch key used by the category crawl.
const CategoriesBatch = "topsellfree_categories"

// Config holds scraper configuration.
type Config struct {
	BaseURL         string        `mapstructure:"base_url"`
	SuggestURL      string        `mapstructure:"suggest_url"`
	SuggestLanguage string        `mapstructure:"suggest_language"`
	SuggestCountry  string        `mapstructure:"suggest_country"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	Delay           time.Duration `mapstructure:"delay"`
	ProbeCacheSize  int           `mapstructure:"probe_cache_size"`
	OutputDir       string        `mapstructure:"output_dir"`
	Store           string        `mapstructure:"store"` // json, sqlite, or dual
	SQLitePath      string        `mapstructure:"sqlite_path"`
	DateOrder       string        `mapstructure:"date_order"` // ymd or dmy
	Layout          string        `mapstructure:"layout"`     // compact or extended
	CategoriesFile  string        `mapstructure:"categories_file"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	Verbose         bool          `mapstructure:"verbose"`
}

// DefaultConfig returns conservative defaults for the storefront.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://play.google.com",
		SuggestURL:      "https://market.android.com/suggest/SuggRequest",
		SuggestLanguage: "ru",
		SuggestCountry:  "RU",
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Timeout:         30 * time.Second,
		ProbeTimeout:    10 * time.Second,
		Delay:           0,
		ProbeCacheSize:  0,
		OutputDir:       ".",
		Store:           "json",
		SQLitePath:      "batches.db",
		DateOrder:       "ymd",
		Layout:          "compact",
		CategoriesFile:  "categories.txt",
		MetricsAddr:     "",
		Verbose:         false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if err := validateURL("base URL", c.BaseURL); err != nil {
		return err
	}
	if strings.HasSuffix(c.BaseURL, "/") {
		return fmt.Errorf("base URL must not end with a slash")
	}
	if err := validateURL("suggest URL", c.SuggestURL); err != nil {
		return err
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("probe timeout cannot be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.ProbeCacheSize < 0 {
		return fmt.Errorf("probe cache size cannot be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	switch c.Store {
	case "json":
	case "sqlite", "dual":
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty for store %q", c.Store)
		}
	default:
		return fmt.Errorf("store must be json, sqlite, or dual")
	}
	if c.DateOrder != "ymd" && c.DateOrder != "dmy" {
		return fmt.Errorf("date order must be ymd or dmy")
	}
	if c.Layout != "compact" && c.Layout != "extended" {
		return fmt.Errorf("layout must be compact or extended")
	}
	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
