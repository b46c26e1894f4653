// Package config assembles and validates the scraper configuration from viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/countryleaders/internal/api"
	"github.com/jmylchreest/countryleaders/internal/biography"
	"github.com/jmylchreest/countryleaders/internal/cache"
	"github.com/jmylchreest/countryleaders/internal/model"
	"github.com/jmylchreest/countryleaders/internal/output"
	"github.com/jmylchreest/countryleaders/internal/session"
	"github.com/jmylchreest/countryleaders/pkg/fetcher"
)

// DefaultUserAgent is sent to the API and to encyclopedia pages.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// Config is the full scraper configuration. Keys match viper keys.
type Config struct {
	BaseURL     string   `mapstructure:"base_url" validate:"required,url"`
	Countries   []string `mapstructure:"countries" validate:"dive,required"`
	SniffCookie bool     `mapstructure:"sniff_cookie"`

	Workers int    `mapstructure:"workers" validate:"min=1,max=64"`
	Mode    string `mapstructure:"mode" validate:"oneof=threads processes sequential"`

	APITimeout         time.Duration `mapstructure:"api_timeout" validate:"min=1ms"`
	PageTimeout        time.Duration `mapstructure:"page_timeout" validate:"min=1ms"`
	RetryDelay         time.Duration `mapstructure:"retry_delay" validate:"min=0"`
	MinParagraphLength int           `mapstructure:"min_paragraph_length" validate:"min=1"`
	UserAgent          string        `mapstructure:"user_agent" validate:"required"`
	RateLimit          float64       `mapstructure:"rate_limit" validate:"min=0"`
	MaxPageSize        string        `mapstructure:"max_page_size"`
	Preset             string        `mapstructure:"preset" validate:"oneof=default extended none"`

	Cache       string        `mapstructure:"cache" validate:"oneof=none memory redis"`
	CacheSize   int           `mapstructure:"cache_size" validate:"min=0"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" validate:"min=0"`
	RedisAddr   string        `mapstructure:"redis_addr" validate:"required_if=Cache redis"`
	CachePrefix string        `mapstructure:"cache_prefix"`

	Output    []string `mapstructure:"output" validate:"dive,required"`
	OutputDir string   `mapstructure:"output_dir"`
	Pretty    bool     `mapstructure:"pretty"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json"`

	// MaxPageBytes is MaxPageSize in bytes (0 = fetcher default).
	MaxPageBytes int `mapstructure:"-"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://country-leaders.onrender.com")
	v.SetDefault("countries", []string{})
	v.SetDefault("sniff_cookie", true)
	v.SetDefault("workers", 8)
	v.SetDefault("mode", "threads")
	v.SetDefault("api_timeout", 20*time.Second)
	v.SetDefault("page_timeout", 30*time.Second)
	v.SetDefault("retry_delay", 500*time.Millisecond)
	v.SetDefault("min_paragraph_length", 60)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("max_page_size", "5MB")
	v.SetDefault("preset", "default")
	v.SetDefault("cache", cache.BackendNone)
	v.SetDefault("cache_size", 4096)
	v.SetDefault("cache_ttl", 24*time.Hour)
	v.SetDefault("redis_addr", "")
	v.SetDefault("cache_prefix", "countryleaders:bio:")
	v.SetDefault("output", []string{})
	v.SetDefault("output_dir", ".")
	v.SetDefault("pretty", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Load reads v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.Preset = strings.ToLower(strings.TrimSpace(cfg.Preset))
	cfg.Cache = strings.ToLower(strings.TrimSpace(cfg.Cache))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.Cache == "" {
		cfg.Cache = cache.BackendNone
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and parses MaxPageSize.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s %s", keyName(e), formatValidationError(e)))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	size := strings.TrimSpace(c.MaxPageSize)
	if size == "" || size == "0" {
		c.MaxPageBytes = 0
		return nil
	}
	n, err := humanize.ParseBytes(size)
	if err != nil {
		return fmt.Errorf("invalid config: max_page_size %q: %w", c.MaxPageSize, err)
	}
	c.MaxPageBytes = int(n)
	return nil
}

// keyName maps a struct field back to its viper key.
func keyName(e validator.FieldError) string {
	ns := e.StructNamespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	field, index, _ := strings.Cut(ns, "[")
	if key, ok := fieldKeys[field]; ok {
		if index != "" {
			return key + "[" + index
		}
		return key
	}
	return ns
}

var fieldKeys = map[string]string{
	"BaseURL":            "base_url",
	"Countries":          "countries",
	"Workers":            "workers",
	"Mode":               "mode",
	"APITimeout":         "api_timeout",
	"PageTimeout":        "page_timeout",
	"RetryDelay":         "retry_delay",
	"MinParagraphLength": "min_paragraph_length",
	"UserAgent":          "user_agent",
	"RateLimit":          "rate_limit",
	"Preset":             "preset",
	"Cache":              "cache",
	"CacheSize":          "cache_size",
	"CacheTTL":           "cache_ttl",
	"RedisAddr":          "redis_addr",
	"Output":             "output",
	"LogLevel":           "log_level",
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", strings.Replace(e.Param(), " ", " is ", 1))
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// CountryCodes returns the configured countries, or nil when none are set so
// the scrape covers every country the API lists.
func (c *Config) CountryCodes() []model.Country {
	if len(c.Countries) == 0 {
		return nil
	}
	out := make([]model.Country, 0, len(c.Countries))
	for _, code := range c.Countries {
		out = append(out, model.Country(strings.TrimSpace(code)))
	}
	return out
}

// Session returns the cookie endpoint settings.
func (c *Config) Session() session.Config {
	return session.Config{
		BaseURL:   c.BaseURL,
		Path:      "/cookie",
		Timeout:   c.APITimeout,
		UserAgent: c.UserAgent,
	}
}

// API returns the leaders API settings.
func (c *Config) API() api.Config {
	return api.Config{
		BaseURL:     c.BaseURL,
		Timeout:     c.APITimeout,
		UserAgent:   c.UserAgent,
		SniffCookie: c.SniffCookie,
	}
}

// Fetcher returns the page fetcher settings.
func (c *Config) Fetcher() fetcher.StaticConfig {
	return fetcher.StaticConfig{
		UserAgent:         c.UserAgent,
		Timeout:           c.PageTimeout,
		MaxBodySize:       c.MaxPageBytes,
		RequestsPerSecond: c.RateLimit,
		Burst:             1,
	}
}

// Biography returns the paragraph lookup settings.
func (c *Config) Biography() biography.Config {
	return biography.Config{
		MinLength:  c.MinParagraphLength,
		RetryDelay: c.RetryDelay,
		Timeout:    c.PageTimeout,
		UserAgent:  c.UserAgent,
	}
}

// CacheConfig returns the biography cache settings.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Backend:   c.Cache,
		Size:      c.CacheSize,
		TTL:       c.CacheTTL,
		RedisAddr: c.RedisAddr,
		Prefix:    c.CachePrefix,
	}
}

// Targets returns the output targets. Relative paths are placed under
// OutputDir; with no output configured, the default JSON and CSV files are used.
func (c *Config) Targets() []output.Target {
	dir := c.OutputDir
	if dir == "" {
		dir = "."
	}
	if len(c.Output) == 0 {
		return output.DefaultTargets(dir)
	}
	targets := make([]output.Target, 0, len(c.Output))
	for _, p := range c.Output {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		targets = append(targets, output.Target{Path: p})
	}
	return targets
}

// WriterOptions returns the options for stream outputs.
func (c *Config) WriterOptions() []output.WriterOption {
	return []output.WriterOption{output.WithPretty(c.Pretty)}
}

// PageLimit describes the page size cap for logs.
func (c *Config) PageLimit() string {
	if c.MaxPageBytes == 0 {
		return "default"
	}
	return humanize.Bytes(uint64(c.MaxPageBytes))
}
